package types

// Identity holds the long-term keys of one scope. EdPriv signs every signed
// pre-key of the scope; XPriv is kept for key agreement by handshake code.
type Identity struct {
	XPub   X25519Public   `json:"xpub"`
	XPriv  X25519Private  `json:"xpriv"`
	EdPub  Ed25519Public  `json:"edpub"`
	EdPriv Ed25519Private `json:"edpriv"`
}

// Wipe zeroes the private halves.
func (id *Identity) Wipe() {
	clear(id.XPriv[:])
	clear(id.EdPriv[:])
}
