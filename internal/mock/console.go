// Package mock provides a fake console for development: a TCP listener
// that replays a scripted debug log so the full pipeline can be
// exercised without hardware.
package mock

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"
)

type scriptLine struct {
	delay time.Duration
	text  string
}

// script walks a plausible evening: boot to the home menu, launch a
// game, bounce through the menu, switch games, then go quiet.
var script = []scriptLine{
	{0, "[boot] system services up"},
	{200 * time.Millisecond, "OnFocusActiveSceneChanged [BootScene] -> [Render.NPXS40002.HomeScene]"},
	{2 * time.Second, "OnFocusActiveSceneChanged [Render.NPXS40002.HomeScene] -> [SplashScreen.ITEM00001]"},
	{1 * time.Second, "nfs: ProhibitionFlag changed, newFlags = [0x2,PPSA01325,]"},
	{500 * time.Millisecond, "OnFocusActiveSceneChanged [SplashScreen.ITEM00001] -> [Render.PPSA01325.MainScene]"},
	{3 * time.Second, "GpuDriver: Render.PPSA01325 frame budget ok"},
	{4 * time.Second, "OnFocusActiveSceneChanged [Render.PPSA01325.MainScene] -> [Render.NPXS40002.HomeScene]"},
	{3 * time.Second, "OnFocusActiveSceneChanged [Render.NPXS40002.HomeScene] -> [Render.PPSA01325.MainScene]"},
	{5 * time.Second, "shell: titleId = CUSA03041 requested"},
	{1 * time.Second, "OnFocusActiveSceneChanged [Render.PPSA01325.MainScene] -> [Render.CUSA03041.GameScene]"},
	{6 * time.Second, "OnFocusActiveSceneChanged [Render.CUSA03041.GameScene] -> [Render.NPXS40002.HomeScene]"},
}

// Console is the scripted stand-in for a real console's klog service.
type Console struct {
	listener net.Listener
	// Speedup divides every scripted delay; 0 means real time.
	Speedup int
}

// Listen binds the mock console on addr ("127.0.0.1:0" picks a free
// port).
func Listen(addr string) (*Console, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mock console listen: %w", err)
	}
	return &Console{listener: ln}, nil
}

// Addr returns the dialable address of the mock console.
func (c *Console) Addr() string {
	return c.listener.Addr().String()
}

// Serve accepts connections until ctx is cancelled, replaying the
// script to each client. Every client gets the script from the top, so
// reconnects behave like a console reboot.
func (c *Console) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.listener.Close()
	}()

	for {
		conn, err := c.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		log.Printf("[mock] client connected: %s", conn.RemoteAddr())
		go c.replay(ctx, conn)
	}
}

func (c *Console) replay(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	for _, line := range script {
		delay := line.delay
		if c.Speedup > 1 {
			delay /= time.Duration(c.Speedup)
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
		if _, err := fmt.Fprintf(conn, "%s\n", line.text); err != nil {
			return
		}
	}
	// Script exhausted: hold the connection open silently so the
	// reader's idle detection kicks in, until the client hangs up.
	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Time{})
	conn.Read(buf)
}
