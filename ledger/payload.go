package ledger

import (
	"keyledger/engine/library"
	"keyledger/keys"
)

// ServiceChallengeMessage is what a service signs to endorse registering key
// under id.
func ServiceChallengeMessage(id library.Account, serviceID string, key keys.VerifyingKey) []byte {
	return library.Sha256Bytes(library.NewPayloadWriter("service_challenge").
		String(id).
		String(serviceID).
		String(key.Algorithm.String()).
		Bytes(key.Bytes).
		Payload())
}

func CreateAccountPayload(id library.Account, serviceID string, key keys.VerifyingKey, challenge keys.Signature) []byte {
	return library.NewPayloadWriter(string(OpCreateAccount)).
		String(id).
		String(serviceID).
		String(key.Algorithm.String()).
		Bytes(key.Bytes).
		Bytes(challenge.Bytes).
		Payload()
}

func AddKeyPayload(id library.Account, key keys.VerifyingKey) []byte {
	return library.NewPayloadWriter(string(OpAddKey)).
		String(id).
		String(key.Algorithm.String()).
		Bytes(key.Bytes).
		Payload()
}

// AddDataPayload binds the account, the blob and the bundle attesting to it.
func AddDataPayload(id library.Account, data []byte, dataSignature keys.SignatureBundle) []byte {
	return library.NewPayloadWriter(string(OpAddData)).
		String(id).
		Bytes(data).
		String(dataSignature.VerifyingKey.Algorithm.String()).
		Bytes(dataSignature.VerifyingKey.Bytes).
		Bytes(dataSignature.Signature.Bytes).
		Payload()
}

func RegisterServicePayload(serviceID string, key keys.VerifyingKey) []byte {
	return library.NewPayloadWriter(string(OpRegisterService)).
		String(serviceID).
		String(key.Algorithm.String()).
		Bytes(key.Bytes).
		Payload()
}
