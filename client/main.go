// The tombola client is the operator and publisher tooling: it drives the
// round lifecycle, builds the participant and winners files from the read
// surface, commits their Merkle roots and lets wallets wager, prove, claim
// and withdraw.
package main

import (
	"crypto/sha256"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/ceyhunalp/tombola/ledger"
	"github.com/ceyhunalp/tombola/lotto"
	"github.com/ceyhunalp/tombola/publisher"
	"github.com/ceyhunalp/tombola/sys"
	"github.com/ceyhunalp/tombola/utils"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3/util/encoding"
	"go.dedis.ch/kyber/v3/util/key"
	"go.dedis.ch/onet/v3/log"
	cli "gopkg.in/urfave/cli.v1"
)

func main() {
	app := cli.NewApp()
	app.Name = "tombola"
	app.Usage = "operator and publisher client for the tombola ledger"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "roster, r", Usage: "roster toml file"},
		cli.StringFlag{Name: "key, k", Usage: "private key file"},
	}
	app.Commands = []cli.Command{
		{
			Name:   "keygen",
			Usage:  "generate a keypair and print the public key",
			Action: keygen,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "out", Usage: "private key output file"},
			},
		},
		{
			Name:   "init",
			Usage:  "initialize the unit from a config file",
			Action: initUnit,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config", Usage: "unit config toml"},
			},
		},
		{
			Name:   "create",
			Usage:  "create the next round",
			Action: createRound,
			Flags: []cli.Flag{
				cli.Int64Flag{Name: "duration", Value: 86400,
					Usage: "round duration in seconds"},
			},
		},
		{
			Name:   "set-answer",
			Usage:  "commit the puzzle answer for a round",
			Action: setAnswer,
			Flags: []cli.Flag{
				cli.Uint64Flag{Name: "round"},
				cli.StringFlag{Name: "answer"},
			},
		},
		{
			Name:   "set-prizes",
			Usage:  "bind the ten prize assets",
			Action: setPrizes,
			Flags: []cli.Flag{
				cli.Uint64Flag{Name: "round"},
				cli.StringFlag{Name: "assets",
					Usage: "comma-separated asset ids"},
			},
		},
		{
			Name:   "open",
			Usage:  "open a round for wagers",
			Action: transition("open"),
			Flags:  roundFlag(),
		},
		{
			Name:   "close",
			Usage:  "close a round",
			Action: transition("close"),
			Flags:  roundFlag(),
		},
		{
			Name:   "snapshot",
			Usage:  "freeze the round totals",
			Action: transition("snapshot"),
			Flags:  roundFlag(),
		},
		{
			Name:   "finalize",
			Usage:  "finalize a settled round",
			Action: transition("finalize"),
			Flags:  roundFlag(),
		},
		{
			Name:   "wager",
			Usage:  "buy a ticket bundle",
			Action: wager,
			Flags: []cli.Flag{
				cli.Uint64Flag{Name: "round"},
				cli.Uint64Flag{Name: "tickets"},
				cli.Uint64Flag{Name: "value"},
			},
		},
		{
			Name:   "proof",
			Usage:  "submit the puzzle proof",
			Action: proof,
			Flags: []cli.Flag{
				cli.Uint64Flag{Name: "round"},
				cli.StringFlag{Name: "answer"},
			},
		},
		{
			Name:   "publish-participants",
			Usage:  "build and commit the participant snapshot file",
			Action: publishParticipants,
			Flags: []cli.Flag{
				cli.Uint64Flag{Name: "round"},
				cli.StringFlag{Name: "out", Usage: "snapshot output file"},
			},
		},
		{
			Name:   "request-rand",
			Usage:  "request the randomness seed",
			Action: requestRand,
			Flags:  roundFlag(),
		},
		{
			Name:   "publish-winners",
			Usage:  "run the draw and commit the winners file",
			Action: publishWinners,
			Flags: []cli.Flag{
				cli.Uint64Flag{Name: "round"},
				cli.StringFlag{Name: "snapshot", Usage: "snapshot file"},
				cli.StringFlag{Name: "out", Usage: "winners output file"},
			},
		},
		{
			Name:   "claim",
			Usage:  "claim a won prize slot",
			Action: claim,
			Flags: []cli.Flag{
				cli.Uint64Flag{Name: "round"},
				cli.StringFlag{Name: "winners", Usage: "winners file"},
			},
		},
		{
			Name:   "refund",
			Usage:  "withdraw the accrued refund balance",
			Action: refund,
		},
		{
			Name:   "status",
			Usage:  "print round status",
			Action: status,
			Flags:  roundFlag(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func roundFlag() []cli.Flag {
	return []cli.Flag{cli.Uint64Flag{Name: "round"}}
}

func getClient(c *cli.Context) (*lotto.Client, error) {
	roster, err := utils.ReadRoster(c.GlobalString("roster"))
	if err != nil {
		return nil, err
	}
	return lotto.NewClient(roster), nil
}

func getKey(c *cli.Context) (*key.Pair, error) {
	buf, err := ioutil.ReadFile(c.GlobalString("key"))
	if err != nil {
		return nil, err
	}
	priv, err := encoding.StringHexToScalar(cothority.Suite,
		strings.TrimSpace(string(buf)))
	if err != nil {
		return nil, err
	}
	return &key.Pair{
		Private: priv,
		Public:  cothority.Suite.Point().Mul(priv, nil),
	}, nil
}

func keygen(c *cli.Context) error {
	kp := key.NewKeyPair(cothority.Suite)
	privHex, err := encoding.ScalarToStringHex(cothority.Suite, kp.Private)
	if err != nil {
		return err
	}
	pubHex, err := utils.PointToHex(kp.Public)
	if err != nil {
		return err
	}
	out := c.String("out")
	if err := ioutil.WriteFile(out, []byte(privHex+"\n"), 0600); err != nil {
		return err
	}
	fmt.Println("public key:", pubHex)
	return nil
}

func initUnit(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	kp, err := getKey(c)
	if err != nil {
		return err
	}
	cfg, err := sys.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	_, err = cl.InitUnit(kp.Public, cfg)
	return err
}

func createRound(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	kp, err := getKey(c)
	if err != nil {
		return err
	}
	start := time.Now().Unix()
	reply, err := cl.CreateRound(kp, start, start+c.Int64("duration"))
	if err != nil {
		return err
	}
	fmt.Println("round:", reply.RoundID)
	return nil
}

func setAnswer(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	kp, err := getKey(c)
	if err != nil {
		return err
	}
	hash := sha256.Sum256([]byte(c.String("answer")))
	_, err = cl.SetPuzzleAnswer(kp, c.Uint64("round"), hash[:])
	return err
}

func setPrizes(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	kp, err := getKey(c)
	if err != nil {
		return err
	}
	assets := strings.Split(c.String("assets"), ",")
	_, err = cl.ConfigurePrizeSlots(kp, c.Uint64("round"), assets)
	return err
}

func transition(op string) cli.ActionFunc {
	return func(c *cli.Context) error {
		cl, err := getClient(c)
		if err != nil {
			return err
		}
		kp, err := getKey(c)
		if err != nil {
			return err
		}
		round := c.Uint64("round")
		switch op {
		case "open":
			_, err = cl.OpenRound(kp, round)
		case "close":
			var reply *lotto.CloseRoundReply
			reply, err = cl.CloseRound(kp, round)
			if err == nil && reply.Refunded {
				fmt.Println("round fell below threshold: refunded")
			}
		case "snapshot":
			_, err = cl.TakeSnapshot(kp, round)
		case "finalize":
			_, err = cl.FinalizeRound(kp, round)
		}
		return err
	}
}

func wager(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	kp, err := getKey(c)
	if err != nil {
		return err
	}
	reply, err := cl.PlaceWager(kp, c.Uint64("round"), c.Uint64("tickets"),
		c.Uint64("value"))
	if err != nil {
		return err
	}
	fmt.Printf("tickets: %d weight: %d\n", reply.Tickets, reply.Weight)
	return nil
}

func proof(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	kp, err := getKey(c)
	if err != nil {
		return err
	}
	hash := sha256.Sum256([]byte(c.String("answer")))
	reply, err := cl.SubmitProof(kp, c.Uint64("round"), hash[:])
	if err != nil {
		return err
	}
	if reply.Matched {
		fmt.Println("proof accepted, weight:", reply.Weight)
	} else {
		fmt.Println("proof rejected")
	}
	return nil
}

func publishParticipants(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	kp, err := getKey(c)
	if err != nil {
		return err
	}
	round := c.Uint64("round")
	rr, err := cl.GetRound(round)
	if err != nil {
		return err
	}
	file, root, err := publisher.BuildParticipantFile(rr.Round)
	if err != nil {
		return err
	}
	buf, err := publisher.Encode(file)
	if err != nil {
		return err
	}
	out := c.String("out")
	if err := ioutil.WriteFile(out, buf, 0644); err != nil {
		return err
	}
	_, err = cl.CommitParticipantRoot(kp, round, root, out)
	return err
}

func requestRand(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	kp, err := getKey(c)
	if err != nil {
		return err
	}
	reply, err := cl.RequestRandomness(kp, c.Uint64("round"))
	if err != nil {
		return err
	}
	fmt.Printf("request id: %x\n", reply.RequestID)
	return nil
}

func publishWinners(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	kp, err := getKey(c)
	if err != nil {
		return err
	}
	round := c.Uint64("round")
	buf, err := ioutil.ReadFile(c.String("snapshot"))
	if err != nil {
		return err
	}
	pf, err := publisher.DecodeParticipantFile(buf)
	if err != nil {
		return err
	}
	rr, err := cl.GetRound(round)
	if err != nil {
		return err
	}
	wf, root, err := publisher.BuildWinnerFile(pf, rr.Round.Seed)
	if err != nil {
		return err
	}
	wbuf, err := publisher.Encode(wf)
	if err != nil {
		return err
	}
	out := c.String("out")
	if err := ioutil.WriteFile(out, wbuf, 0644); err != nil {
		return err
	}
	_, err = cl.CommitWinnerRoot(kp, round, root, out)
	return err
}

func claim(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	kp, err := getKey(c)
	if err != nil {
		return err
	}
	wallet, err := utils.PointToHex(kp.Public)
	if err != nil {
		return err
	}
	buf, err := ioutil.ReadFile(c.String("winners"))
	if err != nil {
		return err
	}
	wf, err := publisher.DecodeWinnerFile(buf)
	if err != nil {
		return err
	}
	round := c.Uint64("round")
	claimed := 0
	for pos, w := range wf.Winners {
		if w.Key != wallet {
			continue
		}
		prf, err := publisher.ProveWinner(wf, pos)
		if err != nil {
			return err
		}
		reply, err := cl.Claim(kp, round, w.Index, w.Tier, prf)
		if err != nil {
			return err
		}
		fmt.Printf("claimed slot %d (tier %d): %s\n", w.Index, w.Tier,
			reply.AssetID)
		claimed++
	}
	if claimed == 0 {
		fmt.Println("no winning slots for this wallet")
	}
	return nil
}

func refund(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	kp, err := getKey(c)
	if err != nil {
		return err
	}
	reply, err := cl.WithdrawRefund(kp)
	if err != nil {
		return err
	}
	fmt.Println("withdrawn:", reply.Amount)
	return nil
}

func status(c *cli.Context) error {
	cl, err := getClient(c)
	if err != nil {
		return err
	}
	reply, err := cl.GetRound(c.Uint64("round"))
	if err != nil {
		return err
	}
	r := reply.Round
	fmt.Printf("round %d: %v\n", r.ID, r.Status)
	fmt.Printf("  tickets: %d weight: %d value: %d carry-in: %d\n",
		r.TotalTickets, r.TotalWeight, r.TotalValue, r.CarryIn)
	fmt.Printf("  participants: %d\n", r.ParticipantCount)
	if len(r.ParticipantRoot) > 0 {
		fmt.Printf("  participant root: %x (%s)\n", r.ParticipantRoot,
			r.ParticipantFile)
	}
	if r.Status == ledger.RandomnessRequested && reply.RandStale {
		fmt.Println("  randomness request is stale, consider a retry")
	}
	if len(r.Seed) > 0 {
		fmt.Printf("  seed: %x\n", r.Seed)
	}
	if len(r.WinnerRoot) > 0 {
		fmt.Printf("  winner root: %x (%s)\n", r.WinnerRoot, r.WinnerFile)
	}
	fmt.Printf("  fees settled: %v pending carry: %d\n", r.FeesSettled,
		reply.PendingCarry)
	if r.Status == ledger.WinnersCommitted || r.Status == ledger.Finalized {
		for i, claimant := range r.Claims {
			if claimant != "" {
				fmt.Printf("  slot %d claimed by %s\n", i, claimant)
			}
		}
	}
	return nil
}
