package socket

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/orblink/internal/atcmd"
	"github.com/muurk/orblink/internal/modemtest"
)

var openCmd = atcmd.OpenCommand("example.com", 80)

func newTestSession(t *testing.T, modem *modemtest.Modem) (*Session, *modemtest.Clock) {
	t.Helper()
	clock := modemtest.NewClock()
	exec, err := atcmd.NewExecutor(modem, atcmd.DefaultConfig(), zap.NewNop(), atcmd.WithClock(clock))
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	return NewSession(exec, DefaultConfig(), zap.NewNop()), clock
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  State
		ok    bool
	}{
		{"ok", modemtest.OK(openCmd, "CONNECT"), StateOpen, true},
		{"connect without ok", openCmd + "\r\nCONNECT\r\n", StateOpen, true},
		{"link id connect", openCmd + "\r\n0,CONNECT\r\n", StateOpen, true},
		{"rejected", modemtest.Error(openCmd, "DNS Fail"), StateOpening, false},
		{"silent", "", StateOpening, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modem := modemtest.NewModem().On(openCmd, tt.reply)
			sess, _ := newTestSession(t, modem)

			err := sess.Open("example.com", 80, 0)
			if (err == nil) != tt.ok {
				t.Fatalf("Open() error = %v, want ok %v", err, tt.ok)
			}
			if sess.State() != tt.want {
				t.Errorf("state = %s, want %s", sess.State(), tt.want)
			}
			if n := modem.Count(openCmd); n != 1 {
				t.Errorf("open sent %d times, want exactly 1", n)
			}
		})
	}
}

func TestOpenBusy(t *testing.T) {
	modem := modemtest.NewModem().On(openCmd, modemtest.OK(openCmd, "CONNECT"))
	sess, _ := newTestSession(t, modem)

	if err := sess.Open("example.com", 80, time.Second); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := sess.Open("example.com", 80, time.Second); !errors.Is(err, ErrBusy) {
		t.Errorf("second Open() error = %v, want ErrBusy", err)
	}
	if n := modem.Count(openCmd); n != 1 {
		t.Errorf("open sent %d times, want 1", n)
	}
}

func TestSend(t *testing.T) {
	send := atcmd.SendCommand(5)
	modem := modemtest.NewModem().
		On(openCmd, modemtest.OK(openCmd, "CONNECT")).
		On(send, send+"\r\n\r\nOK\r\n> ").
		OnPayload("\r\nRecv 5 bytes\r\n\r\nSEND OK\r\n")
	sess, clock := newTestSession(t, modem)

	if err := sess.Open("example.com", 80, 0); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := sess.Send([]byte("hello")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := modem.Payloads(); !reflect.DeepEqual(got, []string{"hello"}) {
		t.Errorf("payloads = %q", got)
	}
	pauses := clock.SleepsLongerThan(atcmd.DefaultConfig().PollInterval)
	if !reflect.DeepEqual(pauses, []time.Duration{100 * time.Millisecond}) {
		t.Errorf("pauses = %v, want a single 100ms delay before the payload", pauses)
	}
}

func TestSendPromptWithoutOK(t *testing.T) {
	send := atcmd.SendCommand(5)
	modem := modemtest.NewModem().
		On(openCmd, modemtest.OK(openCmd, "CONNECT")).
		On(send, send+"\r\n> ").
		OnPayload("\r\nRecv 5 bytes\r\n\r\nSEND OK\r\n")
	sess, clock := newTestSession(t, modem)

	if err := sess.Open("example.com", 80, 0); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	start := clock.Now()
	if err := sess.Send([]byte("hello")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if n := modem.Count(send); n != 1 {
		t.Errorf("announce sent %d times, want 1", n)
	}
	if got := modem.Payloads(); !reflect.DeepEqual(got, []string{"hello"}) {
		t.Errorf("payloads = %q, want only the payload", got)
	}
	if elapsed := clock.Now().Sub(start); elapsed >= DefaultConfig().SendTimeout {
		t.Errorf("Send() took %s, the prompt should end the wait", elapsed)
	}
}

func TestSendRequiresOpen(t *testing.T) {
	modem := modemtest.NewModem()
	sess, _ := newTestSession(t, modem)

	if err := sess.Send([]byte("x")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Send() error = %v, want ErrNotOpen", err)
	}
	if len(modem.Commands()) != 0 {
		t.Errorf("commands = %q, want none", modem.Commands())
	}
}

func TestSendRefused(t *testing.T) {
	send := atcmd.SendCommand(3)
	modem := modemtest.NewModem().
		On(openCmd, modemtest.OK(openCmd)).
		On(send, modemtest.Error(send, "link is not valid"))
	sess, _ := newTestSession(t, modem)

	if err := sess.Open("example.com", 80, 0); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	err := sess.Send([]byte("abc"))
	if !atcmd.IsRejected(err) {
		t.Fatalf("Send() error = %v, want rejected", err)
	}
	if len(modem.Payloads()) != 0 {
		t.Error("payload must not be written after a refused announce")
	}
}

func TestAwaitResponse(t *testing.T) {
	modem := modemtest.NewModem()
	sess, _ := newTestSession(t, modem)

	modem.Inject(modemtest.IPD("HTTP/1.1 200 OK\r\n\r\nhi") + "\r\nCLOSED\r\n")
	data, err := sess.AwaitResponse(10 * time.Second)
	if err != nil {
		t.Fatalf("AwaitResponse() error = %v", err)
	}
	if !strings.HasSuffix(string(data), "CLOSED\r\n") {
		t.Errorf("data = %q", data)
	}
}

func TestAwaitResponsePartial(t *testing.T) {
	modem := modemtest.NewModem()
	sess, clock := newTestSession(t, modem)

	modem.Inject(modemtest.IPD("HTTP/1.1 200 OK\r\n"))
	start := clock.Now()
	data, err := sess.AwaitResponse(3 * time.Second)
	if err != nil {
		t.Fatalf("AwaitResponse() error = %v", err)
	}
	if !strings.Contains(string(data), "+IPD,") {
		t.Errorf("data = %q", data)
	}
	if clock.Now().Sub(start) < 3*time.Second {
		t.Error("partial data should wait out the full deadline")
	}
}

func TestAwaitResponseTimeout(t *testing.T) {
	sess, _ := newTestSession(t, modemtest.NewModem())

	_, err := sess.AwaitResponse(time.Second)
	if !IsResponseTimeout(err) {
		t.Errorf("AwaitResponse() error = %v, want ResponseTimeoutError", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	modem := modemtest.NewModem().
		On(openCmd, modemtest.OK(openCmd, "CONNECT")).
		On(atcmd.CmdClose, modemtest.OK(atcmd.CmdClose, "CLOSED"))
	sess, _ := newTestSession(t, modem)

	sess.Close()
	if n := modem.Count(atcmd.CmdClose); n != 0 {
		t.Fatalf("close from Closed sent %d commands", n)
	}

	if err := sess.Open("example.com", 80, 0); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sess.Close()
	sess.Close()
	sess.Close()

	if n := modem.Count(atcmd.CmdClose); n != 1 {
		t.Errorf("close sent %d times, want 1", n)
	}
	if sess.State() != StateClosed {
		t.Errorf("state = %s, want closed", sess.State())
	}
}

func TestCloseAfterFailedOpen(t *testing.T) {
	modem := modemtest.NewModem().
		On(openCmd, modemtest.Error(openCmd)).
		On(atcmd.CmdClose, modemtest.Error(atcmd.CmdClose))
	sess, _ := newTestSession(t, modem)

	if err := sess.Open("example.com", 80, 0); err == nil {
		t.Fatal("Open() should fail")
	}
	sess.Close()

	if n := modem.Count(atcmd.CmdClose); n != 1 {
		t.Errorf("close sent %d times, want exactly 1 even when it fails", n)
	}
	if sess.State() != StateClosed {
		t.Errorf("state = %s, want closed", sess.State())
	}
	if err := sess.Open("example.com", 80, 0); errors.Is(err, ErrBusy) {
		t.Error("session should be reusable after Close")
	}
}
