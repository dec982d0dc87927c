// cmd/main.go
package main

import (
	"go-identity-api/app"
)

// @title           Go Identity API
// @version         1.0
// @description     Identity, role and claims administration API with JWT access tokens and rotating refresh tokens.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
