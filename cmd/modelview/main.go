// Package main is the entry point for the modelview model viewer.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/config"
	"github.com/Faultbox/modelview/internal/logger"
	"github.com/Faultbox/modelview/internal/viewer"
)

func main() {
	flags, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LoggerOptions())
	defer logger.Sync()

	logger.Info("=== modelview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := viewer.New(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if cfg.Viewer.ModelPath != "" {
		if err := v.Open(cfg.Viewer.ModelPath); err != nil {
			logger.Error("failed to open model", zap.String("path", cfg.Viewer.ModelPath), zap.Error(err))
		}
	} else {
		logger.Info("no model given, drop a .gltf, .glb or .obj file onto the window")
	}

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}
