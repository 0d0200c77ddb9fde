package comfy

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// progressEvent is the subset of ComfyUI websocket traffic we care about.
type progressEvent struct {
	Type string `json:"type"`
	Data struct {
		Value    int     `json:"value"`
		Max      int     `json:"max"`
		Node     *string `json:"node"`
		PromptID string  `json:"prompt_id"`
	} `json:"data"`
}

// watchProgress streams execution events until the prompt finishes or the
// socket dies. Strictly advisory: any failure here just means less logging,
// the history poll decides when the result is ready.
func (c *Client) watchProgress(ctx context.Context, promptID string) {
	wsURL := strings.Replace(c.serverURL, "http", "ws", 1) + "/ws?clientId=" + c.clientID

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		log.Printf("[comfy] progress stream unavailable: %v", err)
		return
	}
	defer conn.Close()

	deadline := time.Now().Add(60 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)

	var lastNode string
	for {
		var event progressEvent
		if err := conn.ReadJSON(&event); err != nil {
			log.Printf("[comfy] progress stream closed: %v", err)
			return
		}

		switch event.Type {
		case "progress":
			if event.Data.Max > 0 {
				pct := event.Data.Value * 100 / event.Data.Max
				log.Printf("[comfy] progress: %d%%", pct)
			}
		case "executing":
			if event.Data.Node == nil {
				if event.Data.PromptID == promptID {
					log.Printf("[comfy] generation complete")
					return
				}
				continue
			}
			if *event.Data.Node != lastNode {
				lastNode = *event.Data.Node
				log.Printf("[comfy] executing node %s", lastNode)
			}
		}
	}
}
