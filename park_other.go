//go:build !(js && wasm)

package depot

// parkUntil blocks the calling goroutine until ch is closed. On every
// platform except js/wasm, the Go runtime's M:N scheduler guarantees other
// goroutines keep making progress while this one is parked, so there is
// nothing to check here.
func parkUntil(ch chan struct{}) error {
	<-ch
	return nil
}
