package main

import "mmoboard_backend/internal/app"

func main() {
	app.Run()
}
