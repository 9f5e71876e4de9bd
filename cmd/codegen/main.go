package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/delaneyj/streamparty/cmd/codegen/templates"
	"github.com/urfave/cli/v3"
)

const outKey = "out"

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate the peek operator wrappers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  outKey,
				Usage: "Output path for the generated file",
				Value: "stream/peek_gen.go",
			},
		},
		Action: generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	log.Printf("codegen for peek wrappers started")
	defer func() {
		log.Printf("codegen for peek wrappers finished in %v", time.Since(start))
	}()

	contents := templates.PeekGen()
	return os.WriteFile(cmd.String(outKey), []byte(contents), 0644)
}
