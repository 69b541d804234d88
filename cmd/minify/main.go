package main

import (
	"fmt"
	"log"
	"os"

	"github.com/woozymasta/staticmap/assets"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Output string `short:"o" long:"out"    description:"Output file"          default:"index.html"`
	Title  string `short:"t" long:"title"  description:"Page title"           default:"Static map"`
	Width  int    `short:"W" long:"width"  description:"Default render width"  default:"800"`
	Height int    `short:"H" long:"height" description:"Default render height" default:"600"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	page, err := assets.Index(opts.Title, opts.Width, opts.Height)
	if err != nil {
		log.Fatal("error build page:", err)
	}

	err = os.WriteFile(opts.Output, page, 0644)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("minify done: %s (%d bytes)\n", opts.Output, len(page))
}
