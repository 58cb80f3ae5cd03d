package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/matheus3301/bcast/internal/api/client"
	"github.com/matheus3301/bcast/internal/config"
	"github.com/matheus3301/bcast/internal/paths"
)

func main() {
	homeFlag := flag.String("home", "", "data directory used to find the default address")
	addrFlag := flag.String("addr", "", "bcastd address (default server.listen from config)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	addr := *addrFlag
	if addr == "" {
		cfg, err := config.LoadOrDefault(paths.ConfigPath(paths.Resolve(*homeFlag)))
		if err != nil {
			fatal(err)
		}
		if err := cfg.ApplyEnv(); err != nil {
			fatal(err)
		}
		addr = cfg.Server.Listen
	}
	c := client.New(addr)

	if args[0] == "watch" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		cmdWatch(ctx, c, *jsonFlag)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	out := output{json: *jsonFlag}
	switch args[0] {
	case "status":
		cmdStatus(ctx, c, out)
	case "contacts":
		cmdContacts(ctx, c, out, args[1:])
	case "reload":
		stats, err := c.Reload(ctx)
		out.print(stats, err, func() { fmt.Printf("Loaded %d contacts (%d online)\n", stats.Total, stats.Online) })
	case "select":
		cmdSelect(ctx, c, args[1:])
	case "templates":
		cmdTemplates(ctx, c, out)
	case "use":
		if len(args) < 2 {
			usageExit("usage: bcastctl use <template-key>")
		}
		snap, err := c.UseTemplate(ctx, args[1])
		out.print(snap, err, func() { fmt.Printf("Message (%d chars):\n%s\n", snap.Chars, snap.Message) })
	case "message":
		if len(args) < 2 {
			usageExit("usage: bcastctl message <text>")
		}
		snap, err := c.SetMessage(ctx, strings.Join(args[1:], " "))
		out.print(snap, err, func() { fmt.Printf("Message set (%d chars)\n", snap.Chars) })
	case "prepare":
		summary, err := c.Prepare(ctx)
		out.print(summary, err, func() {
			fmt.Printf("Prepared for %d recipients, sendable at %s\n", summary.Recipients, summary.ReadyAt.Format(time.TimeOnly))
			if summary.Skipped > 0 {
				fmt.Printf("Skipped %d selected contacts without a valid phone\n", summary.Skipped)
			}
		})
	case "send":
		res, err := c.Send(ctx)
		out.print(res, err, func() {
			fmt.Printf("Sent %s to %d recipients in %s\n", res.ID, res.Recipients, res.Duration.Round(time.Millisecond))
		})
	case "cancel":
		cancelled, err := c.Cancel(ctx)
		out.print(map[string]bool{"cancelled": cancelled}, err, func() {
			if cancelled {
				fmt.Println("Send cancelled.")
			} else {
				fmt.Println("Nothing is sending.")
			}
		})
	case "reset":
		err := c.Reset(ctx)
		out.print(map[string]bool{"reset": err == nil}, err, func() { fmt.Println("Broadcast reset.") })
	case "history":
		cmdHistory(ctx, c, out, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: bcastctl [--addr <host:port>] [--home <dir>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                          Show broadcast state and counters")
	fmt.Fprintln(os.Stderr, "  contacts [-search s] [-status s] [-page n]")
	fmt.Fprintln(os.Stderr, "                                  List one page of contacts")
	fmt.Fprintln(os.Stderr, "  reload                          Refetch contacts from the directory")
	fmt.Fprintln(os.Stderr, "  select all|none|online          Change the selection")
	fmt.Fprintln(os.Stderr, "  templates                       List templates")
	fmt.Fprintln(os.Stderr, "  use <key>                       Load a template into the composer")
	fmt.Fprintln(os.Stderr, "  message <text>                  Set the composer text")
	fmt.Fprintln(os.Stderr, "  prepare                         Arm the broadcast")
	fmt.Fprintln(os.Stderr, "  send                            Send the prepared broadcast")
	fmt.Fprintln(os.Stderr, "  cancel                          Abort an in-flight send")
	fmt.Fprintln(os.Stderr, "  reset                           Drop a prepared broadcast")
	fmt.Fprintln(os.Stderr, "  history [-limit n]              Show recent broadcasts")
	fmt.Fprintln(os.Stderr, "  watch                           Stream live events")
}

type output struct {
	json bool
}

// print reports err and exits, or renders v as JSON or through text.
func (o output) print(v any, err error, text func()) {
	if err != nil {
		fatal(err)
	}
	if o.json {
		outputJSON(v)
		return
	}
	text()
}

func cmdStatus(ctx context.Context, c *client.Client, out output) {
	stats, err := c.Stats(ctx)
	if err != nil {
		fatal(err)
	}
	snap, err := c.Broadcast(ctx)
	out.print(map[string]any{"stats": stats, "broadcast": snap}, err, func() {
		fmt.Printf("State:      %s\n", snap.State)
		if snap.Countdown > 0 {
			fmt.Printf("Countdown:  %s\n", snap.Countdown.Round(time.Second))
		}
		fmt.Printf("Contacts:   %d (%d online, %d selected)\n", stats.Contacts.Total, stats.Contacts.Online, stats.Contacts.Selected)
		fmt.Printf("Message:    %d chars, %d lines\n", snap.Chars, snap.Lines)
		fmt.Printf("Broadcasts: %d sent, %d failed, %d recipients\n", stats.Broadcasts.Sent, stats.Broadcasts.Failed, stats.Broadcasts.Recipients)
	})
}

func cmdContacts(ctx context.Context, c *client.Client, out output, args []string) {
	fs := flag.NewFlagSet("contacts", flag.ExitOnError)
	search := fs.String("search", "", "name or phone substring")
	status := fs.String("status", "", "online|offline|pending|unknown")
	page := fs.Int("page", 1, "page number")
	_ = fs.Parse(args)

	p, err := c.Contacts(ctx, *search, *status, *page)
	out.print(p, err, func() {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "SEL\tNAME\tPHONE\tSTATUS\tSOURCE")
		for _, ct := range p.Contacts {
			sel := " "
			if ct.Selected {
				sel = "x"
			}
			_, _ = fmt.Fprintf(w, "[%s]\t%s\t%s\t%s\t%s\n", sel, ct.Name, ct.Phone, ct.Status, ct.Source)
		}
		_ = w.Flush()
		fmt.Printf("page %d/%d, %d matching, %d selected\n", p.Number, max(p.Count, 1), p.Total, p.Stats.Selected)
	})
}

func cmdSelect(ctx context.Context, c *client.Client, args []string) {
	if len(args) == 0 {
		usageExit("usage: bcastctl select all|none|online")
	}
	var err error
	switch args[0] {
	case "all":
		err = c.SelectAll(ctx, true)
	case "none":
		err = c.SelectAll(ctx, false)
	case "online":
		err = c.SelectOnline(ctx)
	default:
		usageExit("usage: bcastctl select all|none|online")
	}
	if err != nil {
		fatal(err)
	}
	fmt.Println("Selection updated.")
}

func cmdTemplates(ctx context.Context, c *client.Client, out output) {
	list, err := c.Templates(ctx)
	out.print(list, err, func() {
		fmt.Printf("Link: %s\n\n", list.Link)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "\tKEY\tNAME\tKIND")
		for _, t := range list.Templates {
			mark := ""
			if t.Key == list.Active {
				mark = "*"
			}
			kind := "built-in"
			if !t.Builtin {
				kind = t.Category
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, t.Key, t.Name, kind)
		}
		_ = w.Flush()
	})
}

func cmdHistory(ctx context.Context, c *client.Client, out output, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "max entries")
	_ = fs.Parse(args)

	list, err := c.History(ctx, *limit)
	out.print(list, err, func() {
		if len(list) == 0 {
			fmt.Println("No broadcasts yet.")
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "TIME\tSTATUS\tRECIPIENTS\tDURATION\tERROR")
		for _, b := range list {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				b.CreatedAt.Local().Format(time.DateTime), b.Status, len(b.Recipients), b.Duration.Round(time.Millisecond), b.Error)
		}
		_ = w.Flush()
	})
}

func cmdWatch(ctx context.Context, c *client.Client, jsonOut bool) {
	err := c.Watch(ctx, func(evt client.WireEvent) {
		if jsonOut {
			outputJSON(evt)
			return
		}
		fmt.Printf("%s  %-28s %s\n", evt.Timestamp.Local().Format(time.TimeOnly), evt.Type, string(evt.Data))
	})
	if err != nil {
		fatal(err)
	}
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func usageExit(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
