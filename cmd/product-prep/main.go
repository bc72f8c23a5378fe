package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	productprep "github.com/menta2k/product-prep"
)

func main() {
	root := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(productprep.GetVersion()),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
