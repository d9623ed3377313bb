// Package nginxconf reads nginx configuration text into a directive tree and
// summarizes its server blocks: which names each block serves and where its
// document root is.
//
// Tokenizing and parsing are done by nginx-go-crossplane. Variables are not
// evaluated and include directives are not followed.
package nginxconf
