// Package devnet serves chardev sessions over the network.
//
// A Server owns a chardev.Registry and accepts connections on any listener
// returned by Listen: plain TCP, TLS, WebSocket or WebSocket over TLS. Each
// connection opens exactly one session with its first frame and keeps it
// until the connection ends. Frames are msgpack encoded Frame values.
//
// Requests on one connection run in order. A cancel frame interrupts the
// request currently blocked on the server, which then fails with
// chardev.ErrInterrupted exactly as a local caller whose context ended.
//
// Server:
//
//	reg, _ := chardev.NewRegistry(chardev.DefaultConfig())
//	ln, _ := devnet.Listen("tcp", ":7360", nil)
//	srv := &devnet.Server{Registry: reg}
//	go srv.Serve(ln)
//
// Client:
//
//	c, err := devnet.Connect(ctx, devnet.ClientConfig{Addr: "tcp://localhost:7360"})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//	n, err := c.Write(ctx, []byte("hello"))
package devnet
