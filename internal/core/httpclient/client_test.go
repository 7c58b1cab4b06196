package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestNewOutbound_Defaults(t *testing.T) {
	c := NewOutbound(0, 0)
	if c.Timeout != 30*time.Second {
		t.Fatalf("timeout=%v", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok || tr.MaxIdleConnsPerHost != 128 || tr.MaxIdleConns != 256 {
		t.Fatalf("transport=%+v", c.Transport)
	}
}

func TestNewOutbound_Sized(t *testing.T) {
	c := NewOutbound(time.Second, 4)
	tr := c.Transport.(*http.Transport)
	if c.Timeout != time.Second || tr.MaxIdleConnsPerHost != 4 {
		t.Fatalf("client=%+v transport=%+v", c, tr)
	}
}
