package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"ecoflow/internal/engine/ecoflow"
	"ecoflow/internal/engine/signing"
	"ecoflow/internal/pkg/logger"
	"ecoflow/internal/platform/auth"
	"ecoflow/internal/platform/config"
)

var errUsage = errors.New("usage")

const usage = `usage: ecoflow [-config path] <command> [flags]

commands:
  devices                          list devices bound to the account
  quota -sn SN                     print every quota of a device
  get -sn SN -quota a,b            print selected quotas
  set -sn SN -cmd CODE -param k=v  send a command (repeat -param)
  sign -nonce N -timestamp T -data JSON
                                   print the string to sign and its signature
  hash-password                    read a password from stdin, print its bcrypt hash
`

type paramFlags []string

func (p *paramFlags) String() string { return strings.Join(*p, ",") }

func (p *paramFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("param %q must be key=value", v)
	}
	*p = append(*p, v)
	return nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	global := flag.NewFlagSet("ecoflow", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	configPath := global.String("config", "configs/config.yaml", "Path to config file")
	if err := global.Parse(args); err != nil || global.NArg() == 0 {
		fmt.Fprint(stdout, usage)
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Logging)

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "devices":
		return runDevices(ctx, cfg, stdout)
	case "quota":
		return runQuota(ctx, cfg, rest, stdout)
	case "get":
		return runGet(ctx, cfg, rest, stdout)
	case "set":
		return runSet(ctx, cfg, rest, stdout)
	case "sign":
		return runSign(cfg, rest, stdout)
	case "hash-password":
		return runHashPassword(stdin, stdout)
	default:
		fmt.Fprint(stdout, usage)
		return errUsage
	}
}

func newClient(cfg *config.Config) (*ecoflow.Client, error) {
	return ecoflow.NewClient(cfg.EcoFlow)
}

func runDevices(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	list, err := client.Devices(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SN\tNAME\tPRODUCT\tONLINE")
	for _, d := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", d.SN, d.DeviceName, d.ProductName, bool(d.Online))
	}
	return tw.Flush()
}

func runQuota(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("quota", flag.ContinueOnError)
	sn := fs.String("sn", "", "Device serial number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	quota, err := client.AllQuota(ctx, *sn)
	if err != nil {
		return err
	}
	return printQuota(stdout, quota)
}

func runGet(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	sn := fs.String("sn", "", "Device serial number")
	quotas := fs.String("quota", "", "Comma separated quota names")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var names []string
	for _, n := range strings.Split(*quotas, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return errors.New("-quota is required")
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	quota, err := client.GetQuota(ctx, *sn, ecoflow.QuotaNames(names...))
	if err != nil {
		return err
	}
	return printQuota(stdout, quota)
}

func runSet(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	sn := fs.String("sn", "", "Device serial number")
	cmdCode := fs.String("cmd", "", "Command code, e.g. WN511_SET_SUPPLY_PRIORITY_PACK")
	var params paramFlags
	fs.Var(&params, "param", "Command parameter key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cmdCode == "" {
		return errors.New("-cmd is required")
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	if err := client.SetQuota(ctx, *sn, *cmdCode, parseParams(params)); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "ok")
	return nil
}

// parseParams turns k=v pairs into a mapping. Integers and true/false are
// typed; everything else stays a string.
func parseParams(pairs []string) *signing.Mapping {
	m := signing.NewMapping()
	for _, pair := range pairs {
		k, v, _ := strings.Cut(pair, "=")
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			m.Set(k, signing.Int(n))
			continue
		}
		switch v {
		case "true":
			m.Set(k, signing.Bool(true))
		case "false":
			m.Set(k, signing.Bool(false))
		default:
			m.Set(k, signing.String(v))
		}
	}
	return m
}

func runSign(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	nonce := fs.String("nonce", "", "Nonce (random when empty)")
	timestamp := fs.String("timestamp", "", "Unix milliseconds (now when empty)")
	data := fs.String("data", "", "JSON object of request parameters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.EcoFlow.Validate(); err != nil {
		return err
	}

	params, err := signing.MappingFromJSON([]byte(*data))
	if err != nil {
		return err
	}

	if *nonce == "" {
		if *nonce, err = (signing.RandomNonce{}).Nonce(); err != nil {
			return err
		}
	}
	if *timestamp == "" {
		*timestamp = signing.Timestamp(signing.SystemClock{}.Now())
	}

	signer := signing.NewSigner(cfg.EcoFlow.AccessKey, cfg.EcoFlow.SecretKey)
	base, err := signer.StringToSign(*nonce, *timestamp, params)
	if err != nil {
		return err
	}
	sig, err := signer.Sign(*nonce, *timestamp, params)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "string_to_sign: %s\nsign: %s\n", base, sig)
	return nil
}

func runHashPassword(stdin io.Reader, stdout io.Writer) error {
	scanner := bufio.NewScanner(stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return err
		}
		return errors.New("no password on stdin")
	}
	password := strings.TrimRight(scanner.Text(), "\r")
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}

func printQuota(stdout io.Writer, quota ecoflow.Quota) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(quota)
}
