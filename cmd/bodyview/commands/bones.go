package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/bodyview/pkg/cli"
	"github.com/haivivi/bodyview/pkg/sensor"
	"github.com/haivivi/bodyview/pkg/skeleton"
)

var bonesPolicy bool

var bonesCmd = &cobra.Command{
	Use:   "bones",
	Short: "Print the skeleton topology or the bone drawing policy",
	Long: `Print the 19 bones drawn for a tracked skeleton in draw order, or with
--policy the style chosen for a bone from the tracking states of its two
joints.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := outputOptions(cmd)
		if err != nil {
			return err
		}
		if bonesPolicy {
			return cli.Output(policyTable(), opts)
		}
		return cli.Output(boneTable(), opts)
	},
}

type boneRow struct {
	Index int    `json:"index" yaml:"index"`
	Name  string `json:"name" yaml:"name"`
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
}

type boneList []boneRow

func (boneList) Header() []string { return []string{"#", "BONE", "FROM", "TO"} }

func (l boneList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, b := range l {
		rows[i] = []string{fmt.Sprint(b.Index), b.Name, b.From, b.To}
	}
	return rows
}

func boneTable() boneList {
	l := make(boneList, 0, skeleton.BoneCount)
	for i, b := range skeleton.Bones {
		l = append(l, boneRow{Index: i, Name: b.Name, From: b.From.String(), To: b.To.String()})
	}
	return l
}

type policyRow struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Rule string `json:"rule" yaml:"rule"`
}

type policyList []policyRow

func (policyList) Header() []string { return []string{"FROM", "TO", "RULE"} }

func (l policyList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, p := range l {
		rows[i] = []string{p.From, p.To, p.Rule}
	}
	return rows
}

func policyTable() policyList {
	states := []sensor.JointTrackingState{sensor.JointNotTracked, sensor.JointInferred, sensor.JointTracked}
	l := make(policyList, 0, len(states)*len(states))
	for _, a := range states {
		for _, b := range states {
			l = append(l, policyRow{From: a.String(), To: b.String(), Rule: skeleton.BonePolicy(a, b).String()})
		}
	}
	return l
}

func init() {
	bonesCmd.Flags().BoolVar(&bonesPolicy, "policy", false, "print the bone policy table")
}
