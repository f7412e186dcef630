package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/signalgate/internal/client"
	"github.com/alfredjeanlab/signalgate/internal/ui"
)

var stdout io.Writer = os.Stdout

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Fprintln(stdout, string(data))
}

func printInboundResult(w io.Writer, res *client.InboundResult) {
	fmt.Fprintf(w, "Outcome: %s\n", ui.RenderOutcome(res.Outcome))
	if res.Error != "" {
		fmt.Fprintf(w, "Error:   %s\n", res.Error)
	}
}

func printStatus(w io.Writer, st *client.Status) {
	fmt.Fprintf(w, "%s %d\n", ui.RenderAccent("Operator:"), st.Operator)
	fmt.Fprintf(w, "%s %s\n\n", ui.RenderAccent("Taken:   "), st.TakenAt.Format("2006-01-02 15:04:05"))

	if len(st.PendingRequests) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("No pending requests."))
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CLIENT\tREQUESTED AT")
		for _, r := range st.PendingRequests {
			fmt.Fprintf(tw, "%d\t%s\n", r.ClientID, r.RequestedAt.Format("2006-01-02 15:04:05"))
		}
		tw.Flush()
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%d pending requests, %d pending proofs, %d confirmed\n",
		len(st.PendingRequests), st.PendingProofs, len(st.Confirmed))
	if len(st.Confirmed) > 0 {
		ids := make([]string, len(st.Confirmed))
		for i, id := range st.Confirmed {
			ids[i] = id.String()
		}
		fmt.Fprintf(w, "Confirmed: %s\n", strings.Join(ids, ", "))
	}
}

func printEvent(w io.Writer, e client.Event) {
	fmt.Fprintf(w, "%s %s %s\n",
		ui.RenderMuted(fmt.Sprintf("#%d", e.ID)),
		ui.RenderCommand(trimTopic(e.Topic)),
		e.Data,
	)
}
