package main

import (
	"github.com/manifest-network/metaharvest/cmd/metaharvest"
)

func main() {
	metaharvest.Execute()
}
