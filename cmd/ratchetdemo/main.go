// Command ratchetdemo drives two in-process ratchet.Session values
// through a duplex exchange, to exercise the engine end to end
// without any transport or identity layer attached.
package main

import (
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ratchetlabs/doubleratchet"
)

type RunCommand struct {
	Messages int    `help:"Number of messages exchanged in each direction." default:"10"`
	Suite    string `help:"Primitive suite to use." enum:"djb,nist,x448,ristretto255" default:"djb"`
	Verbose  bool   `help:"Log every header, not just the summary."`
}

func (cmd *RunCommand) Run() error {
	level := slog.LevelInfo
	if cmd.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	suite, err := suiteByName(cmd.Suite)
	if err != nil {
		return err
	}
	cfg := ratchet.Config{Suite: suite}

	sk := make([]byte, 32)
	if _, err := rand.Read(sk); err != nil {
		return fmt.Errorf("generating shared secret: %w", err)
	}

	bobKeys, err := suite.DH.Generate(rand.Reader)
	if err != nil {
		return fmt.Errorf("generating bob's key pair: %w", err)
	}

	bob, err := ratchet.NewPassive(cfg, sk, bobKeys)
	if err != nil {
		return fmt.Errorf("bootstrapping bob: %w", err)
	}
	alice, err := ratchet.NewActive(cfg, sk, bobKeys.Public())
	if err != nil {
		return fmt.Errorf("bootstrapping alice: %w", err)
	}
	logger.Info("sessions bootstrapped", slog.String("suite", cmd.Suite))

	send, recv := alice, bob
	sendName, recvName := "alice", "bob"
	for round := 0; round < 2*cmd.Messages; round++ {
		plaintext := []byte(fmt.Sprintf("message %d from %s", round, sendName))

		h, ct, err := send.Encrypt(plaintext)
		if err != nil {
			return fmt.Errorf("%s: encrypt: %w", sendName, err)
		}
		logger.Debug("sealed", slog.String("from", sendName), slog.Int("n", h.N), slog.Int("pn", h.PN))

		got, err := recv.Decrypt(h, ct)
		if err != nil {
			return fmt.Errorf("%s: decrypt: %w", recvName, err)
		}
		logger.Info("delivered", slog.String("from", sendName), slog.String("to", recvName), slog.String("text", string(got)))

		send, recv = recv, send
		sendName, recvName = recvName, sendName
	}

	logger.Info("exchange complete",
		slog.Bool("alice_can_send", alice.CanSend()),
		slog.Bool("bob_can_send", bob.CanSend()),
	)
	return nil
}

func suiteByName(name string) (ratchet.Suite, error) {
	aeadInfo := []byte("ratchetdemo aead")
	switch name {
	case "djb":
		return ratchet.NewDJBSuite(aeadInfo), nil
	case "nist":
		return ratchet.NewNISTSuite(elliptic.P256(), aeadInfo), nil
	case "x448":
		return ratchet.NewX448Suite(aeadInfo), nil
	case "ristretto255":
		return ratchet.NewRistrettoSuite(aeadInfo), nil
	default:
		return ratchet.Suite{}, fmt.Errorf("unknown suite %q", name)
	}
}

var cli struct {
	Run RunCommand `cmd help:"Run a duplex exchange between two sessions."`
}

func main() {
	ctx := kong.Parse(&cli)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
