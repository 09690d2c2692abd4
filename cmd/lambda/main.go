// cmd/lambda/main.go
package main

import (
	"transaction-lookup/app"
)

func main() {
	app.RunLambda()
}
