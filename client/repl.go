package client

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"soupbin/session"
)

var (
	reQuit   = regexp.MustCompile(`^q(uit)?$`)
	reLogout = regexp.MustCompile(`^lo(gout)?$`)
	reDebug  = regexp.MustCompile(`^debug (.*)$`)
	reDate   = regexp.MustCompile(`^date$`)
)

// RunREPL reads newline-terminated commands from r and drives s until the
// user quits, logs out, or r reaches EOF. It implements the reference
// client's command grammar exactly (spec §6): q/quit, lo/logout,
// debug <text>, date. Unknown lines are logged and ignored.
func RunREPL(r io.Reader, s *session.Session, log session.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		switch {
		case reQuit.MatchString(line):
			return
		case reLogout.MatchString(line):
			s.SendLogout()
			return
		case reDebug.MatchString(line):
			m := reDebug.FindStringSubmatch(line)
			s.SendDebug(m[1])
		case reDate.MatchString(line):
			s.SendUnsequenced("date")
		default:
			log.Info("client: unknown command", "line", strings.TrimSpace(line))
		}
	}
}
