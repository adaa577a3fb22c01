package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/presentation/tui"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// RunSession executes one interactive character session. The engine ticks
// on a wall-clock timer in the background while stdin drives reactions
// and commands; both paths serialize on the engine's own lock.
func RunSession(sigCtx *SignalContext, opts RunOptions) error {
	logger := createLogger(opts.Debug)

	tui.PrintBanner()

	eng, src, err := createEngine(sigCtx, opts, logger)
	if err != nil {
		return err
	}
	defer eng.Destroy()

	s := &session{
		eng:    eng,
		render: tui.NewRenderer(),
		logger: logger,
	}
	s.subscribe()

	if opts.Watch {
		watchCatalog(sigCtx, eng, src, logger)
	}

	printSystemMessage("Character '%s' is live at %d fps.", eng.Name, opts.FPS)
	printSystemMessage("Type text to react, /help for commands, q to quit.")

	go s.tickLoop(sigCtx, time.Second/time.Duration(opts.FPS))

	runErr := s.inputLoop(sigCtx)

	logCompletion(eng.Status().Ticks, sigCtx.Signal())
	return handleExecutionError(runErr)
}

type session struct {
	eng    *avatar.Engine
	render func(string) (string, error)
	logger *slog.Logger
}

// subscribe narrates engine events on stdout. Handlers run inside the
// engine's notification path and must not call back into the engine.
func (s *session) subscribe() {
	s.eng.SubscribeReactions(func(r domain.Reaction) {
		printSystemMessage("Reaction '%s' tripped by %q, playing '%s'.", r.Rule, r.Keyword, r.Sequence)
	})
	s.eng.SubscribeEmotions(func(c domain.EmotionChange) {
		if c.Committed {
			printSystemMessage("Emotion shifted to '%s'.", c.Expression)
			return
		}
		printSystemMessage("Emotion '%s' refused (%s).", c.Expression, c.Reason)
	})
	s.eng.SubscribeSequences(func(e domain.SequenceEvent) {
		if e.Step < 0 && !e.Looped {
			printSystemMessage("Sequence '%s' finished.", e.Sequence)
		}
	})
}

func (s *session) tickLoop(ctx context.Context, dt time.Duration) {
	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.eng.Tick(dt)
		}
	}
}

func (s *session) inputLoop(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return io.EOF
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case line == "q" || line == "quit" || line == "exit":
				return nil
			case strings.HasPrefix(line, "/"):
				s.handleCommand(ctx, line)
			default:
				if !s.eng.React(line) {
					printSystemMessage("No reaction rule matched.")
				}
			}
		}
	}
}

func (s *session) handleCommand(ctx context.Context, line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		s.printHelp()

	case "/status":
		out, err := s.render(statusMarkdown(s.eng.Status()))
		if err != nil {
			s.logger.Error("Status render failed", "err", err)
			printSystemMessage("Status render failed: %v", err)
			return
		}
		fmt.Print(out)

	case "/motion":
		if len(args) == 0 {
			printSystemMessage("Usage: /motion <group>")
			return
		}
		group := args[0]
		cat := s.eng.Catalog()
		if _, ok := cat.Motion(group); !ok {
			if hint, ok := cat.SuggestMotion(group); ok {
				printSystemMessage("Unknown motion '%s'. Did you mean '%s'?", group, hint)
			} else {
				printSystemMessage("Unknown motion '%s'.", group)
			}
			return
		}
		if s.eng.PlayMotion(group) {
			printSystemMessage("Motion '%s' admitted.", group)
		} else {
			printSystemMessage("Motion '%s' rejected; its region is held by a higher rank.", group)
		}

	case "/stop":
		if len(args) == 0 {
			s.eng.StopAllMotions(false)
			printSystemMessage("All motions fading out.")
			return
		}
		s.eng.StopMotion(domain.ParseRegion(args[0]), false)
		printSystemMessage("Region '%s' fading out.", args[0])

	case "/expr":
		if len(args) == 0 {
			printSystemMessage("Usage: /expr <name> [weight]")
			return
		}
		name, weight := args[0], 1.0
		if len(args) > 1 {
			w, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				printSystemMessage("Invalid weight %q.", args[1])
				return
			}
			weight = w
		}
		if _, ok := s.eng.Catalog().Expression(name); !ok {
			if hint, ok := s.eng.Catalog().SuggestExpression(name); ok {
				printSystemMessage("Unknown expression '%s'. Did you mean '%s'?", name, hint)
				return
			}
		}
		s.eng.SetExpression(name, weight, 0)

	case "/clear":
		s.eng.ClearExpressions()
		printSystemMessage("Expressions cleared.")

	case "/emotion":
		if len(args) == 0 {
			printSystemMessage("Usage: /emotion <name>")
			return
		}
		// Outcome is narrated by the emotion subscription.
		s.eng.SetEmotionSmart(args[0])

	case "/seq":
		if len(args) == 0 {
			printSystemMessage("Usage: /seq <name>")
			return
		}
		if err := s.eng.PlaySequence(args[0]); err != nil {
			printSystemMessage("%v", err)
		}

	case "/cancel":
		s.eng.CancelSequence()
		printSystemMessage("Sequence cancelled.")

	case "/gaze":
		if len(args) < 2 {
			printSystemMessage("Usage: /gaze <x> <y>")
			return
		}
		x, errX := strconv.ParseFloat(args[0], 64)
		y, errY := strconv.ParseFloat(args[1], 64)
		if errX != nil || errY != nil {
			printSystemMessage("Gaze wants two numbers in [-1, 1].")
			return
		}
		s.eng.LookAt(x, y)

	case "/reload":
		if err := s.eng.Reload(ctx); err != nil {
			printSystemMessage("Reload failed: %v", err)
			return
		}
		printSystemMessage("Catalog reloaded.")

	case "/reset":
		s.eng.Reset()
		printSystemMessage("Engine reset; idle restored.")

	default:
		printSystemMessage("Unknown command '%s'. /help lists commands.", cmd)
	}
}

func (s *session) printHelp() {
	fmt.Print(`Commands:
  /status            render the live engine state
  /motion <group>    request a motion (arbitrated by rank)
  /stop [region]     fade out one region, or everything
  /expr <name> [w]   set an expression target
  /clear             drop all expression targets
  /emotion <name>    smart emotion switch (inertia applies)
  /seq <name>        play a sequence
  /cancel            cancel the running sequence
  /gaze <x> <y>      aim the eyes
  /reload            reload the catalog from its source
  /reset             reset the engine state
  q | quit | exit    leave

Anything else is reacted to as speech.
`)
}
