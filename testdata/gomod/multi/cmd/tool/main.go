package main

import (
	"fmt"

	"example.com/app/internal/b"
)

func main() {
	fmt.Println(b.Upper("tool"))
}
