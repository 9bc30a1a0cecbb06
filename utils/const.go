package utils

// Escrow keypairs are minted at the first external BIP-44 slot; each split
// gets its own mnemonic, so the fixed index never collides.
const ESCROW_DERIVATION_PATH = "m/44'/60'/0'/0/0"

// Tolerance for comparing fiat-style amounts.
const AMOUNT_EPSILON = 0.01
