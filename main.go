package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/tripsell/rewards-api/cmd/app"
)

// @termsOfService  http://swagger.io/terms/
// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
//
// @securityDefinitions.apikey ServiceKeyAuth
// @in header
// @name X-Service-Key
// @description Shared key for internal services
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
