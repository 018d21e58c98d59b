package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/openchip/rvdbg/target"
)

var examineCmd = &cobra.Command{
	Use:   "examine",
	Short: "Establish the debug session and probe Debug RAM",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, cleanup, err := buildTarget()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := t.Examine(); err != nil {
			return err
		}

		fmt.Printf("examined: address bits %d, debug RAM %d words\n",
			t.Session().AddressBits(), t.RAM().Size())

		return nil
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Report the run state of the core",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, cleanup, err := buildTarget()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := t.Examine(); err != nil {
			return err
		}

		state, err := t.Poll()
		if err != nil {
			return err
		}

		fmt.Println(state)

		return nil
	},
}

var haltCmd = &cobra.Command{
	Use:   "halt",
	Short: "Halt the core and wait for the acknowledgement",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, cleanup, err := buildTarget()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := t.Examine(); err != nil {
			return err
		}

		if err := t.Halt(); err != nil {
			return err
		}

		deadline := time.Now().Add(flagTimeout)
		for {
			state, err := t.Poll()
			if err != nil {
				return err
			}
			if state == target.StateHalted {
				fmt.Println(state)
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("target did not halt, still %s", state)
			}
		}
	},
}

var ramCmd = &cobra.Command{
	Use:   "ram",
	Short: "Access Debug RAM words",
}

var ramReadCmd = &cobra.Command{
	Use:   "read <index>",
	Short: "Read one Debug RAM word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return err
		}

		t, cleanup, err := buildTarget()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := t.Examine(); err != nil {
			return err
		}

		value, err := t.RAM().ReadWord(uint32(index))
		if err != nil {
			return err
		}

		fmt.Printf("0x%08x\n", value)

		return nil
	},
}

var ramWriteCmd = &cobra.Command{
	Use:   "write <index> <value>",
	Short: "Write and verify one Debug RAM word",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return err
		}
		value, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return err
		}

		t, cleanup, err := buildTarget()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := t.Examine(); err != nil {
			return err
		}

		if err := t.RAM().WriteWord(uint32(index), uint32(value), false); err != nil {
			return err
		}

		ok, err := t.RAM().VerifyWord(uint32(index), uint32(value))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("debug RAM word %d did not verify", index)
		}

		return nil
	},
}
