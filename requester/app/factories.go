package app

import (
	"github.com/PeladoCollado/requester/executor/worker"
	"github.com/PeladoCollado/requester/requester/requests"
	"github.com/PeladoCollado/requester/types"
)

type RequestLoader interface {
	Load(path string) (types.RequestSpec, error)
}

type SenderFactory interface {
	NewSender(cfg Config) (worker.Sender, error)
}

type RequestLoaderFunc func(path string) (types.RequestSpec, error)

func (f RequestLoaderFunc) Load(path string) (types.RequestSpec, error) {
	return f(path)
}

type SenderFactoryFunc func(cfg Config) (worker.Sender, error)

func (f SenderFactoryFunc) NewSender(cfg Config) (worker.Sender, error) {
	return f(cfg)
}

func NewBuiltInSender(cfg Config) (worker.Sender, error) {
	client := worker.NewClient(worker.ClientOptions{
		Connections: cfg.Threads,
		Timeout:     cfg.RequestTimeout,
		Insecure:    cfg.Insecure,
	})
	return worker.NewHTTPSender(client), nil
}

func requestLoaderOrDefault(loader RequestLoader) RequestLoader {
	if loader != nil {
		return loader
	}
	return RequestLoaderFunc(requests.LoadFile)
}

func senderFactoryOrDefault(factory SenderFactory) SenderFactory {
	if factory != nil {
		return factory
	}
	return SenderFactoryFunc(NewBuiltInSender)
}
