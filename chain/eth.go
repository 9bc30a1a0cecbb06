package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/splitpay/split_wallet_service/config"
	wrapErrors "github.com/splitpay/split_wallet_service/errors"
	"github.com/splitpay/split_wallet_service/utils"
)

type ETHChain struct {
	Rpc       string
	ChainID   *big.Int
	TestToken string
	MainNet   bool
	Keys      Keystore
}

func NewETHChain(cfg config.EthConfig, keys Keystore) *ETHChain {
	return &ETHChain{
		Rpc:       cfg.RPC,
		ChainID:   big.NewInt(cfg.ChainID),
		TestToken: cfg.TestToken,
		MainNet:   cfg.MainNet,
		Keys:      keys,
	}
}

// DeriveKeypair walks a BIP-44 path from seed and returns the ECDSA key and
// its address. hdkeychain does not distinguish eth networks.
func DeriveKeypair(seed []byte, path string) (*ecdsa.PrivateKey, string, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, "", err
	}

	indices, err := parseDerivationPath(path)
	if err != nil {
		return nil, "", err
	}

	key := master
	for _, idx := range indices {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, "", err
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, "", err
	}

	ecdsaKey, err := crypto.ToECDSA(priv.Serialize())
	if err != nil {
		return nil, "", err
	}

	address := crypto.PubkeyToAddress(ecdsaKey.PublicKey)
	return ecdsaKey, address.Hex(), nil
}

func (e *ETHChain) Transfer(ctx context.Context, from, to string, amount float64, memo string) (string, error) {
	if e.Keys == nil {
		return "", wrapErrors.New(wrapErrors.SignerErr, "Transfer", "no keystore configured")
	}
	priv, err := e.Keys.SigningKey(ctx, from)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.SignerErr, "resolve signing key", err)
	}
	return e.send(ctx, priv, to, utils.AmountToWei(amount), []byte(memo))
}

func (e *ETHChain) TransferWithKey(ctx context.Context, secretKeyHex, to string, amount float64, memo string) (string, error) {
	priv, err := crypto.HexToECDSA(secretKeyHex)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.SignerErr, "parse secret key", err)
	}
	return e.send(ctx, priv, to, utils.AmountToWei(amount), []byte(memo))
}

func (e *ETHChain) send(ctx context.Context, priv *ecdsa.PrivateKey, to string, amountWei *big.Int, data []byte) (string, error) {
	link := fmt.Sprintf("%s%s", e.Rpc, e.TestToken)
	client, err := ethclient.Dial(link)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.DailChain, "eth dial", err)
	}
	defer client.Close()

	chainID, err := client.NetworkID(ctx)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.GetchainIDErr, "get chainID", err)
	}
	e.ChainID = chainID

	fromAddr := crypto.PubkeyToAddress(priv.PublicKey)
	nonce, err := client.PendingNonceAt(ctx, fromAddr)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.PendingNonceAt, "PendingNonceAt", err)
	}

	tip, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.CodeChainRPC, "SuggestGasTipCap", err)
	}

	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.CodeChainRPC, "HeaderByNumber", err)
	}

	baseFee := header.BaseFee

	feeCap := new(big.Int).Add(
		new(big.Int).Mul(baseFee, big.NewInt(2)), // keep a buffer
		tip,
	)

	// memo bytes raise the intrinsic gas above the plain-transfer floor
	gas := uint64(21000) + uint64(len(data))*68

	toAddr := common.HexToAddress(to)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   e.ChainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &toAddr,
		Value:     amountWei,
		Data:      data,
	})

	signer := types.NewLondonSigner(e.ChainID)
	signedTx, err := types.SignTx(tx, signer, priv)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.SignerErr, "SignTx", err)
	}

	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.SendTxErr, "SendTransaction", err)
	}

	return signedTx.Hash().Hex(), nil
}
