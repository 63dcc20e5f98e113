package main

import "place-swipe-backend/cmd"

func main() {
	cmd.Run()
}
