package twilio

import "sync"

// SenderStub records messages for assertions in tests
type SenderStub struct {
	mu           sync.Mutex
	SentTo       []string
	SentMessages []string
	SendError    error
	// FailFor marks destinations whose sends should fail
	FailFor map[string]error
}

func (stub *SenderStub) SendMessage(to, msg string) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()

	if err, ok := stub.FailFor[to]; ok {
		return err
	}

	if stub.SendError != nil {
		return stub.SendError
	}

	stub.SentTo = append(stub.SentTo, to)
	stub.SentMessages = append(stub.SentMessages, msg)
	return nil
}
