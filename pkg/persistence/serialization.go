package persistence

import (
	"encoding/json"
	"fmt"
)

// MarshalTreeAccount serializes a TreeAccount to JSON bytes.
func MarshalTreeAccount(account *TreeAccount) ([]byte, error) {
	if account == nil {
		return nil, fmt.Errorf("cannot marshal nil TreeAccount")
	}

	data, err := json.Marshal(account)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TreeAccount to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalTreeAccount deserializes a TreeAccount from JSON bytes.
func UnmarshalTreeAccount(data []byte) (*TreeAccount, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var account TreeAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to TreeAccount: %w", err)
	}

	return &account, nil
}
