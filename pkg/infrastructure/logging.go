// Package infrastructure provides reusable infrastructure components for Go applications.
package infrastructure

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxLoggerAdapter routes Fx's own lifecycle events and prints through zap.
// Routine wiring events go to Debug so they stay out of the way of the
// terminal UI; failures always go to Error.
type FxLoggerAdapter struct {
	logger *zap.Logger
}

// NewFxLoggerAdapter creates an fxevent.Logger backed by zap.
func NewFxLoggerAdapter(logger *zap.Logger) fxevent.Logger {
	return &FxLoggerAdapter{logger: logger.Named("fx")}
}

// NewFxPrinter creates an fx.Printer backed by zap.
func NewFxPrinter(logger *zap.Logger) fx.Printer {
	return &FxLoggerAdapter{logger: logger.Named("fx")}
}

// LogEvent implements fxevent.Logger.
func (p *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		p.logger.Debug("OnStart hook executing", zap.String("callee", e.FunctionName), zap.String("caller", e.CallerName))
	case *fxevent.OnStartExecuted:
		p.hookResult("OnStart", e.FunctionName, e.CallerName, e.Runtime.String(), e.Err)
	case *fxevent.OnStopExecuting:
		p.logger.Debug("OnStop hook executing", zap.String("callee", e.FunctionName), zap.String("caller", e.CallerName))
	case *fxevent.OnStopExecuted:
		p.hookResult("OnStop", e.FunctionName, e.CallerName, e.Runtime.String(), e.Err)
	case *fxevent.Supplied:
		p.result("supplied", e.Err, zap.String("type", e.TypeName), zap.String("module", e.ModuleName))
	case *fxevent.Provided:
		p.result("provided", e.Err, zap.Strings("types", e.OutputTypeNames), zap.String("constructor", e.ConstructorName))
	case *fxevent.Decorated:
		p.result("decorated", e.Err, zap.Strings("types", e.OutputTypeNames), zap.String("decorator", e.DecoratorName))
	case *fxevent.Invoking:
		p.logger.Debug("invoking", zap.String("function", e.FunctionName))
	case *fxevent.Invoked:
		p.result("invoked", e.Err, zap.String("function", e.FunctionName))
	case *fxevent.Stopping:
		p.logger.Info("received signal", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		p.result("stopped", e.Err)
	case *fxevent.RollingBack:
		p.logger.Error("start failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		p.result("rolled back", e.Err)
	case *fxevent.Started:
		p.result("started", e.Err)
	case *fxevent.LoggerInitialized:
		p.result("logger initialized", e.Err, zap.String("constructor", e.ConstructorName))
	default:
		p.logger.Debug("unhandled fx event", zap.String("type", fmt.Sprintf("%T", event)))
	}
}

// Printf implements fx.Printer.
func (p *FxLoggerAdapter) Printf(format string, args ...any) {
	p.logger.Sugar().Infof(format, args...)
}

func (p *FxLoggerAdapter) hookResult(hook, callee, caller, runtime string, err error) {
	fields := []zap.Field{zap.String("callee", callee), zap.String("caller", caller)}
	if err != nil {
		p.logger.Error(hook+" hook failed", append(fields, zap.Error(err))...)
		return
	}
	p.logger.Debug(hook+" hook executed", append(fields, zap.String("runtime", runtime))...)
}

// result logs msg at Debug on success and at Error when err is set.
func (p *FxLoggerAdapter) result(msg string, err error, fields ...zap.Field) {
	if err != nil {
		p.logger.Error(msg+" with error", append(fields, zap.Error(err))...)
		return
	}
	p.logger.Debug(msg, fields...)
}
