/*
Package cli provides command-line interface utilities for the patientseek
command.

Output Formatting:

Command results render as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	table := cli.Table{Headers: []string{"ID", "Label"}, Rows: rows}
	if err := formatter.FormatTo(os.Stdout, table); err != nil {
		return err
	}

Streaming:

ChunkPrinter turns streamed fragments into terminal output:

	printer := cli.NewChunkPrinter(os.Stdout, os.Stderr)
	resp, err := model.Generate(ctx, req, printer.Callback())
	printer.Finish()

Signal Handling:

For graceful cancellation on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
