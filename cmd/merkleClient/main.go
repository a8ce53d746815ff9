package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/merkle-tree-go/pkg/address"
	"github.com/Layr-Labs/merkle-tree-go/pkg/client"
	"github.com/Layr-Labs/merkle-tree-go/pkg/config"
	"github.com/Layr-Labs/merkle-tree-go/pkg/logger"
)

func payerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "payer",
		Usage:    "Address of the account that owns the tree",
		EnvVars:  []string{config.EnvMerklePayer},
		Required: true,
	}
}

func leafFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "leaf",
		Usage:    "32 byte leaf (0x prefixed hex)",
		Required: true,
	}
}

func siblingsFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "sibling",
		Usage: "32 byte sibling hash, leaf-adjacent first (repeatable)",
	}
}

func main() {
	app := &cli.App{
		Name:  "merkle-client",
		Usage: "Client for the fixed depth merkle tree server",
		Description: `Sends instructions to a merkle tree server and queries tree state.

Leaves, siblings and roots are 32 byte values written as 0x prefixed hex.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "Merkle server base URL",
				Value:   "http://localhost:8000",
				EnvVars: []string{config.EnvMerkleServerURL},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Initialize the tree owned by a payer",
				Flags:  []cli.Flag{payerFlag()},
				Action: initCommand,
			},
			{
				Name:  "insert",
				Usage: "Append a leaf to a tree",
				Flags: []cli.Flag{
					payerFlag(),
					&cli.StringFlag{Name: "tree", Usage: "Tree address (derived from --payer when omitted)"},
					leafFlag(),
				},
				Action: insertCommand,
			},
			{
				Name:   "compute",
				Usage:  "Fold a leaf with its siblings, each sibling on the right",
				Flags:  []cli.Flag{leafFlag(), siblingsFlag()},
				Action: computeCommand,
			},
			{
				Name:  "verify",
				Usage: "Check a proof for a leaf slot against a root",
				Flags: []cli.Flag{
					leafFlag(),
					siblingsFlag(),
					&cli.UintFlag{Name: "index", Usage: "Leaf slot of the leaf", Required: true},
					&cli.StringFlag{Name: "root", Usage: "Expected 32 byte root", Required: true},
				},
				Action: verifyCommand,
			},
			{
				Name:  "prove",
				Usage: "Fetch the authentication path of a populated leaf slot",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tree", Usage: "Tree address", Required: true},
					&cli.IntFlag{Name: "index", Usage: "Leaf slot", Required: true},
				},
				Action: proveCommand,
			},
			{
				Name:  "tree",
				Usage: "Show the state of a tree",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tree", Usage: "Tree address", Required: true},
				},
				Action: treeCommand,
			},
			{
				Name:   "address",
				Usage:  "Show the tree address derived for a payer",
				Flags:  []cli.Flag{payerFlag()},
				Action: addressCommand,
			},
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: healthCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// createClient creates a new merkle client from CLI context
func createClient(c *cli.Context) (*client.Client, error) {
	zapLogger, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return client.NewClient(&client.ClientConfig{
		BaseURL: c.String("server-url"),
		Logger:  zapLogger,
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseHash(name, s string) ([32]byte, error) {
	var out [32]byte
	b, err := hexutil.Decode(s)
	if err != nil {
		return out, fmt.Errorf("invalid %s: %w", name, err)
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("invalid %s: got %d bytes, expected %d", name, len(b), len(out))
	}
	copy(out[:], b)
	return out, nil
}

func parseSiblings(c *cli.Context) ([][32]byte, error) {
	raw := c.StringSlice("sibling")
	siblings := make([][32]byte, len(raw))
	for i, s := range raw {
		h, err := parseHash(fmt.Sprintf("sibling %d", i), s)
		if err != nil {
			return nil, err
		}
		siblings[i] = h
	}
	return siblings, nil
}

func initCommand(c *cli.Context) error {
	payer, err := address.ParseAddress(c.String("payer"))
	if err != nil {
		return err
	}
	mc, err := createClient(c)
	if err != nil {
		return err
	}

	res, err := mc.Initialize(c.Context, payer)
	if err != nil {
		return fmt.Errorf("failed to initialize tree: %w", err)
	}
	return printJSON(res)
}

func insertCommand(c *cli.Context) error {
	payer, err := address.ParseAddress(c.String("payer"))
	if err != nil {
		return err
	}
	leaf, err := parseHash("leaf", c.String("leaf"))
	if err != nil {
		return err
	}
	mc, err := createClient(c)
	if err != nil {
		return err
	}

	var tree common.Address
	if s := c.String("tree"); s != "" {
		if tree, err = address.ParseAddress(s); err != nil {
			return err
		}
	} else {
		resp, err := mc.DeriveAddress(c.Context, payer)
		if err != nil {
			return fmt.Errorf("failed to derive tree address: %w", err)
		}
		tree = resp.Tree
	}

	res, err := mc.InsertLeaf(c.Context, payer, tree, leaf)
	if err != nil {
		return fmt.Errorf("failed to insert leaf: %w", err)
	}
	return printJSON(res)
}

func computeCommand(c *cli.Context) error {
	leaf, err := parseHash("leaf", c.String("leaf"))
	if err != nil {
		return err
	}
	siblings, err := parseSiblings(c)
	if err != nil {
		return err
	}
	mc, err := createClient(c)
	if err != nil {
		return err
	}

	root, err := mc.ComputeRoot(c.Context, leaf, siblings)
	if err != nil {
		return fmt.Errorf("failed to compute root: %w", err)
	}
	fmt.Println(root.Hex())
	return nil
}

func verifyCommand(c *cli.Context) error {
	leaf, err := parseHash("leaf", c.String("leaf"))
	if err != nil {
		return err
	}
	root, err := parseHash("root", c.String("root"))
	if err != nil {
		return err
	}
	siblings, err := parseSiblings(c)
	if err != nil {
		return err
	}
	index := c.Uint("index")
	if index > 255 {
		return fmt.Errorf("invalid index %d", index)
	}
	mc, err := createClient(c)
	if err != nil {
		return err
	}

	if err := mc.VerifyRoot(c.Context, leaf, uint8(index), siblings, root); err != nil {
		return fmt.Errorf("proof rejected: %w", err)
	}
	fmt.Println("Proof verified")
	return nil
}

func proveCommand(c *cli.Context) error {
	tree, err := address.ParseAddress(c.String("tree"))
	if err != nil {
		return err
	}
	mc, err := createClient(c)
	if err != nil {
		return err
	}

	proof, err := mc.GetProof(c.Context, tree, c.Int("index"))
	if err != nil {
		return fmt.Errorf("failed to fetch proof: %w", err)
	}
	return printJSON(proof)
}

func treeCommand(c *cli.Context) error {
	tree, err := address.ParseAddress(c.String("tree"))
	if err != nil {
		return err
	}
	mc, err := createClient(c)
	if err != nil {
		return err
	}

	state, err := mc.GetTree(c.Context, tree)
	if err != nil {
		return fmt.Errorf("failed to fetch tree: %w", err)
	}
	return printJSON(state)
}

func addressCommand(c *cli.Context) error {
	payer, err := address.ParseAddress(c.String("payer"))
	if err != nil {
		return err
	}
	mc, err := createClient(c)
	if err != nil {
		return err
	}

	resp, err := mc.DeriveAddress(c.Context, payer)
	if err != nil {
		return fmt.Errorf("failed to derive address: %w", err)
	}
	return printJSON(resp)
}

func healthCommand(c *cli.Context) error {
	mc, err := createClient(c)
	if err != nil {
		return err
	}

	resp, err := mc.Health(c.Context)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return printJSON(resp)
}
