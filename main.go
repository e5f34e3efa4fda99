package main

import "github.com/vibast-solutions/ms-go-upi-payments/cmd"

func main() {
	cmd.Execute()
}
