// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Command rmm-console is an interactive host-side harness for the
// monitor: a liner-backed REPL that issues RMI calls against an
// in-process Monitor and prints ledger/realm/REC state back as
// tables, the same role the teacher's JavaScript console plays for a
// running node (minus the JS runtime - there is no scripting surface
// here, only the RMI verbs themselves).
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/armcca/rmm/audit"
	"github.com/armcca/rmm/common"
	"github.com/armcca/rmm/granule"
	"github.com/armcca/rmm/internal/rmmlog"
	"github.com/armcca/rmm/monitor"
	"github.com/armcca/rmm/platform"
	"github.com/armcca/rmm/rmi"
	"github.com/armcca/rmm/wire"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "platform TOML config file (defaults to a small in-memory platform)",
	}
	auditFlag = cli.StringFlag{
		Name:  "auditdb",
		Usage: "path to a LevelDB audit log (defaults to in-memory, discarded on exit)",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "v",
		Usage: "debug-level logging (spec §7: never use this outside a trusted harness)",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "rmm-console"
	app.Usage = "interactive Realm Management Monitor harness"
	app.Flags = []cli.Flag{configFlag, auditFlag, verboseFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.Bool(verboseFlag.Name) {
		rmmlog.SetLevel(rmmlog.LevelDebug)
	}

	cfg := platform.DefaultConfig()
	if path := ctx.String(configFlag.Name); path != "" {
		loaded, err := platform.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("loading platform config: %w", err)
		}
		cfg = loaded
	}

	dram, err := platform.NewDRAM(cfg)
	if err != nil {
		return fmt.Errorf("mapping DRAM: %w", err)
	}
	defer dram.Close()

	var auditLog *audit.Log
	if path := ctx.String(auditFlag.Name); path != "" {
		auditLog, err = audit.Open(path)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
	} else {
		auditLog, err = audit.OpenMemory()
		if err != nil {
			return fmt.Errorf("opening in-memory audit log: %w", err)
		}
	}
	defer auditLog.Close()

	m, err := monitor.New(cfg, dram, platform.NewFakeOracle(), platform.NoopVCPUState{}, auditLog)
	if err != nil {
		return fmt.Errorf("initialising monitor: %w", err)
	}
	dispatcher := m.NewDispatcher()

	c := &console{m: m, dispatcher: dispatcher}
	c.loop()
	return nil
}

// console owns the REPL's readline state and the monitor it drives.
type console struct {
	m          *monitor.Monitor
	dispatcher *rmi.Dispatcher
}

func (c *console) loop() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	color.Cyan("rmm-console: monitor %s, type 'help' for commands", c.m.ID)
	for {
		input, err := line.Prompt("rmm> ")
		if err != nil {
			if err != io.EOF && err != liner.ErrPromptAborted {
				color.Red("readline: %v", err)
			}
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return
		}
		if err := c.dispatchCommand(cmd, args); err != nil {
			color.Red("%v", err)
		}
	}
}

func (c *console) dispatchCommand(cmd string, args []string) error {
	switch cmd {
	case "help":
		c.help()
		return nil
	case "version":
		reply := c.dispatcher.Dispatch(rmi.FidVersion, rmi.Args{})
		fmt.Printf("version=%#x major=%d minor=%d\n", reply.Out[0], reply.Out[0]>>16, reply.Out[0]&0xffff)
		return nil
	case "delegate":
		return c.simpleCall(rmi.FidGranuleDelegate, args, 1)
	case "undelegate":
		return c.simpleCall(rmi.FidGranuleUndelegate, args, 1)
	case "ledger":
		c.printLedger()
		return nil
	case "granule":
		return c.printGranule(args)
	case "realm-create":
		return c.realmCreate(args)
	case "realm-activate":
		return c.simpleCall(rmi.FidRealmActivate, args, 1)
	case "realm-destroy":
		return c.simpleCall(rmi.FidRealmDestroy, args, 1)
	case "realm":
		return c.printRealm(args)
	case "rec-create":
		return c.recCreate(args)
	case "rec-destroy":
		return c.simpleCall(rmi.FidRecDestroy, args, 1)
	case "rec-enter":
		return c.simpleCall(rmi.FidRecEnter, args, 2)
	case "rec":
		return c.printRec(args)
	case "psci-complete":
		return c.simpleCall(rmi.FidPSCIComplete, args, 2)
	case "data-create-unknown":
		return c.simpleCall(rmi.FidDataCreateUnknown, args, 3)
	case "data-destroy":
		return c.simpleCall(rmi.FidDataDestroy, args, 2)
	case "rtt-create":
		return c.rttCreate(args)
	case "rtt-destroy":
		return c.rttCall(rmi.FidRTTDestroy, args)
	case "audit":
		c.printAudit()
		return nil
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (c *console) help() {
	fmt.Println(`commands:
  version
  delegate <addr>                       undelegate <addr>
  ledger                                granule <addr>
  realm-create <rd> <params> <rtt> <par_base> <par_size> <ipa_width> <level_start> <num_start> <algo>
  realm-activate <rd>                   realm-destroy <rd>
  realm <rd>
  rec-create <rec> <rd> <mpidr> <params> <pc> <runnable:0|1>
  rec-destroy <rec>                     rec-enter <rec> <run_ns>
  rec <rec>
  rtt-create <rtt> <rd> <ipa> <level>   rtt-destroy <rtt> <rd> <ipa> <level>
  data-create-unknown <data> <rd> <ipa> data-destroy <rd> <ipa>
  psci-complete <caller_rec> <target_rec>
  audit
  quit`)
}

func (c *console) simpleCall(fid rmi.Fid, args []string, argc int) error {
	vals, err := parseHexArgs(args, argc)
	if err != nil {
		return err
	}
	var a rmi.Args
	copy(a[:], vals)
	reply := c.dispatcher.Dispatch(fid, a)
	return reportErrCode(reply.Err)
}

func (c *console) rttCreate(args []string) error {
	vals, err := parseHexArgs(args, 4)
	if err != nil {
		return err
	}
	a := rmi.Args{vals[0], vals[1], vals[2], vals[3]}
	reply := c.dispatcher.Dispatch(rmi.FidRTTCreate, a)
	return reportErrCode(reply.Err)
}

func (c *console) rttCall(fid rmi.Fid, args []string) error {
	vals, err := parseHexArgs(args, 4)
	if err != nil {
		return err
	}
	a := rmi.Args{vals[0], vals[1], vals[2], vals[3]}
	reply := c.dispatcher.Dispatch(fid, a)
	return reportErrCode(reply.Err)
}

// realmCreate pokes an rmi_realm_params buffer into paramsAddr (plain
// host-owned, Non-secure memory - never delegated) before issuing
// REALM_CREATE, mirroring what a real hypervisor driver does.
func (c *console) realmCreate(args []string) error {
	vals, err := parseHexArgs(args, 9)
	if err != nil {
		return err
	}
	rdAddr, paramsAddr, rttAddr := vals[0], vals[1], vals[2]
	parBase, parSize, ipaWidth := vals[3], vals[4], vals[5]
	levelStart, numStart, algo := vals[6], vals[7], vals[8]

	buf, err := c.m.DRAM().Granule(paramsAddr)
	if err != nil {
		return fmt.Errorf("params granule: %w", err)
	}
	p := wire.RealmParams{
		ParBase:         parBase,
		ParSize:         parSize,
		RTTBase:         rttAddr,
		MeasurementAlgo: algo,
		Features0:       ipaWidth,
		RTTLevelStart:   int64(levelStart),
		RTTNumStart:     uint32(numStart),
	}
	wire.EncodeRealmParams(buf, &p)

	reply := c.dispatcher.Dispatch(rmi.FidRealmCreate, rmi.Args{rdAddr, paramsAddr})
	return reportErrCode(reply.Err)
}

// recCreate pokes an rmi_rec_params buffer into paramsAddr before
// issuing REC_CREATE.
func (c *console) recCreate(args []string) error {
	vals, err := parseHexArgs(args, 6)
	if err != nil {
		return err
	}
	recAddr, rdAddr, mpidr, paramsAddr, pc, runnable := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]

	buf, err := c.m.DRAM().Granule(paramsAddr)
	if err != nil {
		return fmt.Errorf("params granule: %w", err)
	}
	var flags uint64
	if runnable != 0 {
		flags = wire.FlagRunnable
	}
	p := wire.RecParams{PC: pc, Flags: flags}
	wire.EncodeRecParams(buf, &p)

	reply := c.dispatcher.Dispatch(rmi.FidRecCreate, rmi.Args{recAddr, rdAddr, mpidr, paramsAddr})
	return reportErrCode(reply.Err)
}

func (c *console) printLedger() {
	counts := c.m.LedgerCounts()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"state", "granules"})
	for _, s := range []granule.State{
		granule.Undelegated, granule.Delegated, granule.Data,
		granule.RD, granule.Rec, granule.RecAux, granule.RTT,
	} {
		table.Append([]string{s.String(), strconv.Itoa(counts[s])})
	}
	table.Render()
}

func (c *console) printGranule(args []string) error {
	vals, err := parseHexArgs(args, 1)
	if err != nil {
		return err
	}
	state, ok := c.m.GranuleState(vals[0])
	if !ok {
		return fmt.Errorf("address %#x is not a delegable granule", vals[0])
	}
	fmt.Printf("%#x: %s\n", vals[0], state)
	return nil
}

func (c *console) printRealm(args []string) error {
	vals, err := parseHexArgs(args, 1)
	if err != nil {
		return err
	}
	summary, code := c.m.RealmSummary(vals[0])
	if code != common.Success {
		return reportErrCode(code)
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"field", "value"})
	table.Append([]string{"vmid", strconv.Itoa(int(summary.VMID))})
	table.Append([]string{"state", summary.State})
	table.Append([]string{"par_base", fmt.Sprintf("%#x", summary.ParBase)})
	table.Append([]string{"par_size", fmt.Sprintf("%#x", summary.ParSize)})
	table.Append([]string{"rec_index", strconv.FormatUint(summary.RecIndex, 10)})
	table.Append([]string{"rec_count", strconv.FormatUint(uint64(summary.RecCount), 10)})
	table.Append([]string{"measurement", summary.Measurement})
	table.Render()
	return nil
}

func (c *console) printRec(args []string) error {
	vals, err := parseHexArgs(args, 1)
	if err != nil {
		return err
	}
	summary, code := c.m.RecSummary(vals[0])
	if code != common.Success {
		return reportErrCode(code)
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"field", "value"})
	table.Append([]string{"owner_rd", fmt.Sprintf("%#x", summary.OwnerRD)})
	table.Append([]string{"pc", fmt.Sprintf("%#x", summary.PC)})
	table.Append([]string{"runnable", strconv.FormatBool(summary.Runnable)})
	table.Append([]string{"state_running", strconv.FormatBool(summary.StateRunning)})
	table.Append([]string{"psci_pending", strconv.FormatBool(summary.PSCIPending)})
	table.Append([]string{"enter_reason", summary.EnterReason})
	table.Render()
	return nil
}

func (c *console) printAudit() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"seq", "fid", "args", "err"})
	_ = c.m.ReplayAudit(func(r audit.Record) {
		table.Append([]string{
			strconv.FormatUint(r.Seq, 10),
			fmt.Sprintf("%#x", r.Fid),
			fmt.Sprintf("%v", r.Args),
			common.ErrCode(r.Err).String(),
		})
	})
	table.Render()
}

func reportErrCode(code common.ErrCode) error {
	if code == common.Success {
		color.Green("SUCCESS")
		return nil
	}
	return fmt.Errorf("%s", code)
}

func parseHexArgs(args []string, want int) ([]uint64, error) {
	if len(args) != want {
		return nil, fmt.Errorf("expected %d argument(s), got %d", want, len(args))
	}
	vals := make([]uint64, want)
	for i, s := range args {
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing argument %q: %w", s, err)
		}
		vals[i] = v
	}
	return vals, nil
}
