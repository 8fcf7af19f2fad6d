// Package bridge implements the remote-execution bridge: a line-delimited
// bidirectional protocol over a loopback TCP connection between this
// process and a child helper process. It owns the child helper, the
// socket, and the issuer/collector goroutine pair.
package bridge

// Request is one outgoing line (issuer -> child): a JSON object followed
// by a newline, id minted by the issuer as the current length of the
// issued-commands registry.
type Request struct {
	ID      uint64   `json:"id"`
	Title   string   `json:"title"`
	Cwd     string   `json:"cwd"`
	Command []string `json:"command"`
	Local   bool     `json:"local"`
}

// Response is one incoming line (child -> collector), after the "mwt "
// line prefix has been stripped.
type Response struct {
	ID       uint64 `json:"id"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
}

// doneLine is the terminator both directions use: issuer sends it to
// signal end of input, child echoes it back to signal end of stream.
const doneLine = "mwt done"

// responsePrefix lines must carry to be parsed as a Response; anything
// else on the wire is ignored silently.
const responsePrefix = "mwt "
