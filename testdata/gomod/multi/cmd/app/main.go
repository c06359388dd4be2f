package main

import (
	"fmt"

	"example.com/app/internal/a"
)

func main() {
	fmt.Println(a.Greeting("app"))
}
