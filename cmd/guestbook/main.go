package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulldump/goconfig"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/redis/go-redis/v9"

	"github.com/arnvald/controller"
	"github.com/arnvald/controller/guestbook"
	"github.com/arnvald/controller/guestbook/configuration"
	"github.com/arnvald/controller/sessions"
)

var VERSION = "dev"

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}

	if c.ShowConfig {
		json.MarshalWrite(os.Stdout, c, jsontext.WithIndent("    "))
		fmt.Println()
	}

	var store sessions.Store = sessions.NewMemoryStore()
	if c.RedisAddr != "" {
		store = sessions.NewRedisStore(redis.NewClient(&redis.Options{Addr: c.RedisAddr}), "")
		log.Println("sessions on redis", c.RedisAddr)
	}

	g := guestbook.New(guestbook.Options{
		Sessions: store,
		Config: controller.Config{
			PublicDir: c.PublicDir,
		},
	})

	b := guestbook.Build(g)
	b.WithInterceptors(
		guestbook.AccessLog(log.New(os.Stdout, "ACCESS: ", log.Lshortfile)),
		guestbook.RecoverFromPanic(log.Default()),
		guestbook.PrettyErrorInterceptor,
	)

	s := &http.Server{
		Addr:    c.HttpAddr,
		Handler: b,
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		log.Println("ERROR:", err.Error())
		os.Exit(-1)
	}
	log.Println("listening on", c.HttpAddr)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-signalChan
		fmt.Println("Signal received", sig.String())
		s.Shutdown(context.Background())
	}()

	if err := s.Serve(ln); err != nil && err != http.ErrServerClosed {
		fmt.Println(err.Error())
	}
}
