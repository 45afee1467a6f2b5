package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/chat"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/gateway"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/render"
)

const helpText = `Commands:
  /settings [max_tokens temperature]  show or change generation settings
  /status                             check the backend
  /history                            print the conversation
  /info                               details of the last response
  /location <name>                    set your location (travel backend)
  /knowledge                          list knowledge topics (travel backend)
  /feedback <1-5> <text>              rate the assistant (travel backend)
  /clear                              clear the conversation
  /help                               show this help
  /quit                               exit`

// repl drives a chat session from line-oriented input.
type repl struct {
	svc     *chat.Service
	profile gateway.Profile
	out     io.Writer
	prompt  bool
}

// run reads lines until EOF, /quit or ctx is done.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if r.prompt {
			fmt.Fprint(r.out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if quit := r.handle(ctx, input); quit {
			fmt.Fprintln(r.out, "Bye!")
			return nil
		}
	}
}

// handle runs one line and reports whether the session should end.
func (r *repl) handle(ctx context.Context, input string) bool {
	if !strings.HasPrefix(input, "/") {
		r.submit(ctx, input)
		return false
	}

	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/clear":
		if err := r.svc.Clear(); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			break
		}
		fmt.Fprintln(r.out, "Conversation cleared.")
	case "/settings":
		r.settings(args)
	case "/status":
		fmt.Fprintln(r.out, render.Status(r.svc.CheckHealth(ctx)))
	case "/history":
		render.Transcript(r.out, r.svc.Store().History())
	case "/info":
		fmt.Fprintln(r.out, render.ResponseInfo(r.svc.LastResponse()))
	case "/location":
		r.location(args)
	case "/knowledge":
		r.knowledge(ctx)
	case "/feedback":
		r.feedback(ctx, args)
	default:
		fmt.Fprintf(r.out, "Unknown command %s, type /help\n", cmd)
	}
	return false
}

func (r *repl) submit(ctx context.Context, text string) {
	fmt.Fprintln(r.out, "AI is thinking...")
	msg, err := r.svc.Submit(ctx, text)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, render.Message(*msg))
}

func (r *repl) settings(args string) {
	if args == "" {
		s := r.svc.Store().Settings()
		fmt.Fprintf(r.out, "Max Tokens: %d\nTemperature: %.1f\n", s.MaxTokens, s.Temperature)
		return
	}

	fields := strings.Fields(args)
	if len(fields) != 2 {
		fmt.Fprintln(r.out, "Usage: /settings <max_tokens> <temperature>")
		return
	}
	maxTokens, err := strconv.Atoi(fields[0])
	if err != nil {
		fmt.Fprintf(r.out, "Invalid max_tokens %q\n", fields[0])
		return
	}
	temperature, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		fmt.Fprintf(r.out, "Invalid temperature %q\n", fields[1])
		return
	}

	s, err := r.svc.UpdateSettings(maxTokens, temperature)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Settings updated: max_tokens=%d temperature=%.1f\n", s.MaxTokens, s.Temperature)
}

func (r *repl) location(args string) {
	if !r.profile.SendsLocation {
		fmt.Fprintln(r.out, "Location is not used by this backend.")
		return
	}
	if args == "" {
		current := r.svc.Store().Location()
		if current == "" {
			current = "(not set)"
		}
		fmt.Fprintf(r.out, "Location: %s\n", current)
		return
	}
	r.svc.SetLocation(args)
	fmt.Fprintf(r.out, "Location set to %s\n", r.svc.Store().Location())
}

func (r *repl) knowledge(ctx context.Context) {
	knowledge, err := r.svc.Knowledge(ctx)
	if err != nil {
		fmt.Fprintln(r.out, unsupportedOrDisplay(err))
		return
	}
	render.Knowledge(r.out, knowledge)
}

func (r *repl) feedback(ctx context.Context, args string) {
	ratingText, text, _ := strings.Cut(args, " ")
	rating, err := strconv.Atoi(ratingText)
	if err != nil {
		fmt.Fprintln(r.out, "Usage: /feedback <1-5> <text>")
		return
	}
	if err := r.svc.SubmitFeedback(ctx, rating, strings.TrimSpace(text)); err != nil {
		if errors.Is(err, chat.ErrInvalidRating) {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(r.out, unsupportedOrDisplay(err))
		return
	}
	fmt.Fprintln(r.out, "Thanks for your feedback!")
}

func unsupportedOrDisplay(err error) string {
	if errors.Is(err, gateway.ErrUnsupported) {
		return "Not supported by this backend."
	}
	return gateway.Display(err)
}
