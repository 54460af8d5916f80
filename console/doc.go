// Package console is the terminal front end for Dotto.
//
// Two players share one keyboard. App shows the main menu (play, resume a
// saved game, settings, scores), Match runs a single game turn by turn and
// Prompter does the line based question and answer underneath both.
//
// Every prompt keeps asking until it gets a valid answer. Prompts that can
// be backed out of accept "c" and return ErrCancelled, which sends the
// player back to the previous menu without the turn passing. When input
// runs out the prompts return ErrInputClosed and App.Run exits quietly.
//
// Boards and tables are drawn with lipgloss. Colour is only used when the
// output is a terminal, so piped output and tests see plain text.
//
// Usage:
//
//	app := console.NewApp(gameService, os.Stdin, os.Stdout, nil)
//	if err := app.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package console
