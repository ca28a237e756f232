package message

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

// SignTypedData asks the wallet for an EIP-712 signature of data by addr. An
// Error reply of the wallet is returned as the error.
func (c *Connection) SignTypedData(ctx context.Context, addr common.Address, data apitypes.TypedData) ([]byte, error) {
	resp, err := c.Request(ctx, &SignTypedData{Address: addr, TypedData: data})
	if err != nil {
		return nil, err
	}

	switch resp := resp.(type) {
	case *SignResponse:
		return resp.Signature, nil
	case *Error:
		return nil, resp
	default:
		return nil, errors.Errorf("expected sign response, got %T", resp)
	}
}
