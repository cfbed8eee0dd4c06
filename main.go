package main

import (
	"context"

	"go.viam.com/rdk/components/board"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/module"
	"go.viam.com/utils"

	"flexio-pwm/mcxn947"
)

func main() {
	utils.ContextualMain(mainWithArgs, module.NewLoggerFromArgs("flexio-pwm"))
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	module, err := module.NewModuleFromArgs(ctx)

	if err != nil {
		return err
	}

	err = module.AddModelFromRegistry(ctx, board.API, mcxn947.Model)
	if err != nil {
		return err
	}

	err = module.Start(ctx)
	defer module.Close(ctx)
	if err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}
