package main

import (
	"os"

	"horse.fit/csvtrans/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
