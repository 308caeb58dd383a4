package serialmux

import (
	"testing"

	"go.bug.st/serial"
)

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if opts.BaudRate != 115200 {
		t.Errorf("Expected default baud 115200, got %d", opts.BaudRate)
	}
	if opts.DataBits != 8 {
		t.Errorf("Expected default data bits 8, got %d", opts.DataBits)
	}
	if opts.StopBits != 1 {
		t.Errorf("Expected default stop bits 1, got %d", opts.StopBits)
	}
	if opts.Parity != "N" {
		t.Errorf("Expected default parity N, got %q", opts.Parity)
	}
}

func TestPortOptionsNormalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    PortOptions
		wantErr bool
	}{
		{"valid explicit", PortOptions{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "E"}, false},
		{"parity word", PortOptions{Parity: "even"}, false},
		{"odd parity", PortOptions{Parity: "ODD"}, false},
		{"bad data bits", PortOptions{DataBits: 9}, true},
		{"bad stop bits", PortOptions{StopBits: 3}, true},
		{"bad parity", PortOptions{Parity: "X"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Normalize()
			if (err != nil) != tt.wantErr {
				t.Errorf("Normalize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPortOptionsEqual(t *testing.T) {
	a := PortOptions{BaudRate: 115200, Parity: "none"}
	b := PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N"}
	if !a.Equal(b) {
		t.Error("Expected normalized-equal options to compare equal")
	}

	c := PortOptions{BaudRate: 9600}
	if a.Equal(c) {
		t.Error("Expected differing baud rates to compare unequal")
	}
}

func TestPortOptionsSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 115200, Parity: "E", StopBits: 2}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode returned error: %v", err)
	}
	if mode.BaudRate != 115200 {
		t.Errorf("Expected baud 115200, got %d", mode.BaudRate)
	}
	if mode.Parity != serial.EvenParity {
		t.Errorf("Expected even parity, got %v", mode.Parity)
	}
	if mode.StopBits != serial.StopBits(2) {
		t.Errorf("Expected two stop bits, got %v", mode.StopBits)
	}

	if _, err := (PortOptions{Parity: "Q"}).SerialMode(); err == nil {
		t.Error("Expected error for invalid parity")
	}
}
