package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/534591395/zoodubbo/client"
	"github.com/534591395/zoodubbo/loadbalance"
	"github.com/534591395/zoodubbo/message"
	"github.com/spf13/cobra"
)

var (
	invokeService string
	invokeVersion string
	invokeMethod  string
	invokeArgs    []string
	invokeWatch   bool
)

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Call one method on a remote service",
	Long: `Resolve the service through the registry, send one invocation and print
the result as JSON (or "void return").

Arguments are given as type=value, e.g.
  --arg java.lang.String=world --arg int=3 --arg java.util.Map='{"k":"v"}'
A bare value is sent as java.lang.String.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if invokeService == "" || invokeMethod == "" {
			return fmt.Errorf("--service and --method are required")
		}
		args := make([]message.Arg, 0, len(invokeArgs))
		for _, raw := range invokeArgs {
			arg, err := parseArg(raw)
			if err != nil {
				return err
			}
			args = append(args, arg)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		reg, err := newRegistry()
		if err != nil {
			return err
		}
		defer reg.Close()
		cache, err := newCache(ctx)
		if err != nil {
			return err
		}
		defer cache.Close()
		bal, err := loadbalance.New(cfg.Client.Balancer, cfg.Client.BalancerKey)
		if err != nil {
			return err
		}
		resolver := client.NewResolver(reg, bal, cache, logger.Named("resolver"))
		if invokeWatch {
			go resolver.Watch(ctx, invokeService, invokeVersion)
		}

		opts, err := client.ConfigOptions(cfg.Client, logger.Named("client"))
		if err != nil {
			return err
		}
		c := client.NewClient(resolver, opts...)
		svc := c.Service(message.ServiceInfo{
			Path:    invokeService,
			Version: invokeVersion,
			Timeout: cfg.Client.Timeout,
		})

		result, err := svc.Call(ctx, invokeMethod, args...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.String())
		return nil
	},
}

func init() {
	invokeCmd.Flags().StringVarP(&invokeService, "service", "s", "", "service path, e.g. com.example.HelloService")
	invokeCmd.Flags().StringVar(&invokeVersion, "version", "", "service version")
	invokeCmd.Flags().StringVarP(&invokeMethod, "method", "m", "", "method name")
	invokeCmd.Flags().StringArrayVarP(&invokeArgs, "arg", "a", nil, "argument as type=value (repeatable)")
	invokeCmd.Flags().BoolVar(&invokeWatch, "watch", false, "keep the endpoint cache in step with registry changes while the call runs")
}

// parseArg turns "type=value" into an argument. Primitive values are parsed by
// type, other class names take a JSON value, falling back to the raw string.
func parseArg(raw string) (message.Arg, error) {
	typ, value, ok := strings.Cut(raw, "=")
	if !ok {
		return message.String(raw), nil
	}
	typ = strings.TrimSpace(typ)

	var (
		v   any
		err error
	)
	switch typ {
	case "boolean":
		v, err = strconv.ParseBool(value)
	case "int", "short", "long":
		v, err = strconv.ParseInt(value, 10, 64)
	case "double", "float":
		v, err = strconv.ParseFloat(value, 64)
	case "java.lang.String", "String":
		return message.String(value), nil
	default:
		var decoded any
		if json.Unmarshal([]byte(value), &decoded) == nil {
			v = decoded
		} else {
			v = value
		}
	}
	if err != nil {
		return message.Arg{}, fmt.Errorf("argument %q: %w", raw, err)
	}
	return message.Arg{Type: typ, Value: v}, nil
}
