package message

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// envelope is the wire form of a JSONObject: {"type": T, "message": {...}}.
type envelope struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message,omitempty"`
}

// constructors creates empty messages by their type name.
var constructors = make(map[string]func() Message)

func register(newMsg func() Message) {
	constructors[newMsg().messageType()] = newMsg
}

func init() {
	register(func() Message { return new(Request) })
	register(func() Message { return new(Response) })
	register(func() Message { return new(Initialize) })
	register(func() Message { return new(Initialized) })
	register(func() Message { return new(LinkUser) })
	register(func() Message { return new(PlaceOrder) })
	register(func() Message { return new(PlaceOrderResponse) })
	register(func() Message { return new(GetEscrowConfig) })
	register(func() Message { return new(EscrowConfigResponse) })
	register(func() Message { return new(GetOrderFee) })
	register(func() Message { return new(OrderFeeResponse) })
	register(func() Message { return new(SignTypedData) })
	register(func() Message { return new(SignResponse) })
	register(func() Message { return new(Success) })
	register(func() Message { return new(Error) })
}

// MarshalJSON encodes o together with the type name of its message.
func (o *JSONObject) MarshalJSON() ([]byte, error) {
	if o.Message == nil {
		return nil, errors.New("marshaling empty message")
	}
	body, err := json.Marshal(o.Message)
	if err != nil {
		return nil, errors.Wrapf(err, "marshaling %s", o.Message.messageType())
	}
	return json.Marshal(envelope{Type: o.Message.messageType(), Message: body})
}

// UnmarshalJSON decodes the message named by the type field. A missing
// message body yields the zero message.
func (o *JSONObject) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	newMsg, ok := constructors[env.Type]
	if !ok {
		return errors.Errorf("message type '%s' not found", env.Type)
	}
	msg := newMsg()
	if len(env.Message) > 0 {
		if err := json.Unmarshal(env.Message, msg); err != nil {
			return errors.Wrapf(err, "unmarshaling %s", env.Type)
		}
	}
	o.Message = msg
	return nil
}
