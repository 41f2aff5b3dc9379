package rendezvous_test

import (
	"testing"

	"github.com/dep2p/go-rendezvous/pkg/lib/proto/rendezvous"
)

func TestMessage_Register(t *testing.T) {
	msg := &rendezvous.Message{
		Type: rendezvous.Message_REGISTER,
		Register: &rendezvous.Message_Register{
			Ns:    "test-namespace",
			Addrs: []string{"/ip4/127.0.0.1/tcp/4001", "/ip4/10.0.0.1/tcp/4001"},
			Ttl:   3600,
		},
	}

	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded rendezvous.Message
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.Type != rendezvous.Message_REGISTER {
		t.Errorf("Type = %v, want REGISTER", decoded.Type)
	}
	if len(decoded.Register.Addrs) != 2 {
		t.Errorf("Addrs count = %d, want 2", len(decoded.Register.Addrs))
	}
	if decoded.Register.Ttl != 3600 {
		t.Errorf("Ttl = %d, want 3600", decoded.Register.Ttl)
	}
}

func TestMessage_Discover(t *testing.T) {
	msg := &rendezvous.Message{
		Type: rendezvous.Message_DISCOVER,
		Discover: &rendezvous.Message_Discover{
			Ns:     "test-namespace",
			Limit:  100,
			Cookie: []byte("pagination-cookie"),
		},
	}

	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded rendezvous.Message
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.Discover.Limit != 100 {
		t.Errorf("Limit = %d, want 100", decoded.Discover.Limit)
	}
	if string(decoded.Discover.Cookie) != "pagination-cookie" {
		t.Errorf("Cookie = %q", decoded.Discover.Cookie)
	}
}

func TestMessage_DiscoverResponse(t *testing.T) {
	msg := &rendezvous.Message{
		Type: rendezvous.Message_DISCOVER_RESPONSE,
		DiscoverResponse: &rendezvous.Message_DiscoverResponse{
			Registrations: []*rendezvous.Message_Registration{
				{
					Ns:    "test-ns",
					Id:    []byte("peer-id-bytes"),
					Addrs: []string{"/ip4/127.0.0.1/tcp/4001"},
					Ttl:   3600,
				},
			},
			Cookie:     []byte{0, 0, 0, 0, 0, 0, 0, 7},
			Status:     rendezvous.Message_OK,
			StatusText: "Success",
		},
	}

	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded rendezvous.Message
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(decoded.DiscoverResponse.Registrations) != 1 {
		t.Fatalf("Registrations count = %d, want 1", len(decoded.DiscoverResponse.Registrations))
	}
	if string(decoded.DiscoverResponse.Registrations[0].Id) != "peer-id-bytes" {
		t.Errorf("Id = %q", decoded.DiscoverResponse.Registrations[0].Id)
	}
	if len(decoded.DiscoverResponse.Cookie) != 8 {
		t.Errorf("Cookie length = %d, want 8", len(decoded.DiscoverResponse.Cookie))
	}
}

func TestMessage_ErrorStatus(t *testing.T) {
	msg := &rendezvous.Message{
		Type: rendezvous.Message_REGISTER_RESPONSE,
		RegisterResponse: &rendezvous.Message_RegisterResponse{
			Status:     rendezvous.Message_E_NOT_AUTHORIZED,
			StatusText: "identity mismatch",
		},
	}

	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded rendezvous.Message
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.RegisterResponse.Status != rendezvous.Message_E_NOT_AUTHORIZED {
		t.Errorf("Status = %v, want E_NOT_AUTHORIZED", decoded.RegisterResponse.Status)
	}
}

func TestMessage_UnmarshalGarbage(t *testing.T) {
	var decoded rendezvous.Message
	if err := decoded.Unmarshal([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Error("Unmarshal of garbage should fail")
	}
}
