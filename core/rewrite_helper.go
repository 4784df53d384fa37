package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"replicate/logger"
	"strings"
)

// ServeRewriteHelper speaks squid's url_rewrite_program protocol: one request
// per line, the URL first. Rewritten URLs are answered with
// `OK rewrite-url="..."`, unchanged ones with `OK`, blank lines with `ERR`.
// An optional leading numeric channel ID is echoed back.
func ServeRewriteHelper(ctx context.Context, rw *Rewriter, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	w := bufio.NewWriter(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields := strings.Fields(scanner.Text())
		channel := ""
		if len(fields) > 1 && isChannelID(fields[0]) {
			channel, fields = fields[0]+" ", fields[1:]
		}
		if len(fields) < 1 {
			fmt.Fprintf(w, "%sERR\n", channel)
		} else {
			decision, err := rw.Rewrite(ctx, fields[0])
			if err != nil {
				logger.Error("Rewrite helper: %v", err)
			}
			if decision.Changed() {
				fmt.Fprintf(w, "%sOK rewrite-url=%q\n", channel, decision.Redirect)
			} else {
				fmt.Fprintf(w, "%sOK\n", channel)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("writing helper response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading helper input: %w", err)
	}
	return nil
}

func isChannelID(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
