// cmd/main.go
package main

import (
	"transaction-lookup/app"
)

// @title           Transaction Lookup API
// @version         1.0
// @description     Lookup, listing and creation of transaction records, plus an HTML lookup form.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
func main() {
	app.Run()
}
