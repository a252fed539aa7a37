package auth

import (
	"context"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// etcdKeyPrefix namespaces every key this package writes, the same
// fixed-prefix convention the example service registry uses for its own
// key layout under etcd.
const etcdKeyPrefix = "/soupbin/auth/"

// EtcdAuthenticator is an Authenticator backed by etcd, letting an
// operator add users and sessions to a running fleet of server processes
// without restarting any of them. It stores:
//
//	/soupbin/auth/user/<user>            -> password
//	/soupbin/auth/session/<user>/<name>  -> "" (presence marker)
//
// Authenticate always reads straight from etcd: the "constructed once,
// then read-only" contract in spec §4.5 is honored from the session's
// point of view (a session never mutates this state), even though the
// backing store may be updated out of band by an operator.
type EtcdAuthenticator struct {
	client    *clientv3.Client
	opTimeout time.Duration
}

// NewEtcdAuthenticator connects to the given etcd endpoints.
func NewEtcdAuthenticator(endpoints []string) (*EtcdAuthenticator, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdAuthenticator{client: c, opTimeout: 3 * time.Second}, nil
}

// Close releases the underlying etcd client connection.
func (a *EtcdAuthenticator) Close() error {
	return a.client.Close()
}

func (a *EtcdAuthenticator) AddUser(user, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.opTimeout)
	defer cancel()
	_, err := a.client.Put(ctx, etcdKeyPrefix+"user/"+user, password)
	return err
}

func (a *EtcdAuthenticator) AddSession(user, sessionName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.opTimeout)
	defer cancel()
	_, err := a.client.Put(ctx, etcdKeyPrefix+"session/"+user+"/"+sessionName, "")
	return err
}

func (a *EtcdAuthenticator) Authenticate(user, password, sessionName string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.opTimeout)
	defer cancel()

	resp, err := a.client.Get(ctx, etcdKeyPrefix+"user/"+user)
	if err != nil {
		return false, err
	}
	if len(resp.Kvs) == 0 || string(resp.Kvs[0].Value) != password {
		return false, nil
	}

	resp, err = a.client.Get(ctx, etcdKeyPrefix+"session/"+user+"/"+sessionName)
	if err != nil {
		return false, err
	}
	return len(resp.Kvs) > 0, nil
}
