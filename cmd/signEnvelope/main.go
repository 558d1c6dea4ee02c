package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/meridian-network/signer-go/pkg/config"
	"github.com/meridian-network/signer-go/pkg/envelope"
	"github.com/meridian-network/signer-go/pkg/envelopeSigner"
	"github.com/meridian-network/signer-go/pkg/logger"
	"github.com/meridian-network/signer-go/pkg/persistence"
	badgerstore "github.com/meridian-network/signer-go/pkg/persistence/badger"
	memorystore "github.com/meridian-network/signer-go/pkg/persistence/memory"
	redisstore "github.com/meridian-network/signer-go/pkg/persistence/redis"
	"github.com/meridian-network/signer-go/pkg/signer"
)

func main() {
	app := &cli.App{
		Name:  "sign-envelope",
		Usage: "Sign a serialized Meridian transaction envelope",
		Description: `Reads an unsigned, hex-encoded transaction envelope, signs it with the
configured backend (local key, AWS KMS, or a Web3Signer-compatible remote
service), and prints the hex-encoded signed envelope.

Optionally records every produced signature into an audit store.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "envelope",
				Aliases: []string{"e"},
				Usage:   "Hex-encoded unsigned envelope",
			},
			&cli.StringFlag{
				Name:    "envelope-file",
				Aliases: []string{"f"},
				Usage:   "File containing the hex-encoded unsigned envelope",
			},
			&cli.BoolFlag{
				Name:  "chain-tag",
				Usage: "Stamp the Meridian chain tag into the signed envelope",
			},
			&cli.StringFlag{
				Name:    "mode",
				Usage:   "Signing backend: local, aws-kms, or remote",
				Value:   "local",
				EnvVars: []string{config.EnvSignerMode},
			},
			&cli.StringFlag{
				Name:    "private-key",
				Aliases: []string{"k"},
				Usage:   "Hex private key for local signing",
				EnvVars: []string{config.EnvSignerPrivateKey},
			},
			&cli.StringFlag{
				Name:    "kms-key-id",
				Usage:   "AWS KMS key id for aws-kms signing",
				EnvVars: []string{config.EnvSignerKMSKeyId},
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Usage:   "AWS region for aws-kms signing",
				EnvVars: []string{config.EnvSignerAWSRegion},
			},
			&cli.StringFlag{
				Name:    "remote-url",
				Usage:   "Web3Signer-compatible service URL for remote signing",
				EnvVars: []string{config.EnvSignerRemoteURL},
			},
			&cli.StringFlag{
				Name:  "from-address",
				Usage: "Account held by the remote signer",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Audit store backend: none, memory, badger, or redis",
				Value: "none",
			},
			&cli.StringFlag{
				Name:  "badger-path",
				Usage: "Data directory for the badger audit store",
				Value: "./signer-records",
			},
			&cli.StringFlag{
				Name:  "redis-address",
				Usage: "Redis address (host:port) for the redis audit store",
				Value: "localhost:6379",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvSignerVerbose},
			},
		},
		Action: runSignEnvelope,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runSignEnvelope(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	envelopeBytes, err := readEnvelope(c)
	if err != nil {
		return err
	}

	s, err := buildSigner(c, l)
	if err != nil {
		return err
	}

	es := envelopeSigner.NewEnvelopeSigner(s, l)

	signedBytes, err := es.Sign(c.Context, envelopeBytes, c.Bool("chain-tag"))
	if err != nil {
		return fmt.Errorf("failed to sign envelope: %w", err)
	}

	if err := recordSignature(c, l, es, s, envelopeBytes, signedBytes); err != nil {
		return err
	}

	fmt.Println(hexutil.Encode(signedBytes))
	return nil
}

func readEnvelope(c *cli.Context) ([]byte, error) {
	raw := c.String("envelope")
	if file := c.String("envelope-file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read envelope file: %w", err)
		}
		raw = strings.TrimSpace(string(data))
	}
	if raw == "" {
		return nil, fmt.Errorf("either --envelope or --envelope-file is required")
	}
	if !strings.HasPrefix(raw, "0x") {
		raw = "0x" + raw
	}
	envelopeBytes, err := hexutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode envelope hex: %w", err)
	}
	return envelopeBytes, nil
}

func buildSigner(c *cli.Context, l *zap.Logger) (signer.ISigner, error) {
	mode, err := config.ParseSignerMode(c.String("mode"))
	if err != nil {
		return nil, err
	}

	cfg := &config.SignerConfig{
		Mode:       mode,
		PrivateKey: c.String("private-key"),
		KMSKeyId:   c.String("kms-key-id"),
		AWSRegion:  c.String("aws-region"),
	}
	if mode == config.SignerModeRemote {
		cfg.RemoteSigner = &config.RemoteSignerConfig{
			Url:         c.String("remote-url"),
			FromAddress: c.String("from-address"),
		}
	}
	return signer.NewSigner(c.Context, cfg, l)
}

func recordSignature(c *cli.Context, l *zap.Logger, es *envelopeSigner.EnvelopeSigner, s signer.ISigner, envelopeBytes, signedBytes []byte) error {
	store, err := buildStore(c, l)
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	defer func() { _ = store.Close() }()

	signed, err := envelope.DecodeSignedEnvelope(signedBytes)
	if err != nil {
		return fmt.Errorf("failed to decode produced envelope: %w", err)
	}
	nonceEnv, err := envelope.DecodeNonceEnvelope(envelopeBytes)
	if err != nil {
		return fmt.Errorf("failed to decode nonce envelope: %w", err)
	}
	sender, err := s.GetSenderAddress(c.Context)
	if err != nil {
		return fmt.Errorf("failed to get sender address: %w", err)
	}
	digest, err := es.Digest(c.Context, envelopeBytes)
	if err != nil {
		return fmt.Errorf("failed to compute digest: %w", err)
	}

	record := &persistence.SignedRecord{
		Sender:      sender.Hex(),
		Sequence:    nonceEnv.Sequence,
		Digest:      hexutil.Encode(digest[:]),
		Signature:   hexutil.Encode(signed.Signature),
		PublicKey:   hexutil.Encode(signed.PublicKey),
		ChainTagged: signed.ChainTag != "",
		CreatedAt:   time.Now().Unix(),
	}
	if err := store.SaveRecord(record); err != nil {
		return fmt.Errorf("failed to save audit record: %w", err)
	}

	l.Sugar().Infow("recorded signature",
		"sender", record.Sender,
		"sequence", record.Sequence,
		"store", c.String("store"),
	)
	return nil
}

func buildStore(c *cli.Context, l *zap.Logger) (persistence.IRecordStore, error) {
	switch strings.ToLower(c.String("store")) {
	case "", "none":
		return nil, nil
	case "memory":
		return memorystore.NewMemoryRecordStore(), nil
	case "badger":
		return badgerstore.NewBadgerRecordStore(c.String("badger-path"), l)
	case "redis":
		return redisstore.NewRedisRecordStore(&redisstore.RedisConfig{
			Address: c.String("redis-address"),
		}, l)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", c.String("store"))
	}
}
