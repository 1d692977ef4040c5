package pubsub

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteSSE writes one event in Server-Sent Events wire format.
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", jsonData)
	return err
}
